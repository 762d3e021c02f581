package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptgen/internal/blocks"
	"scriptgen/internal/domain"
)

// ScriptJob names the script generation job in logs, the ledger and sync state.
const ScriptJob = "scripts"

// ScriptService runs one polling pass: every record waiting in scripting gets a
// generated script appended and is moved to review.
//
// The ledger stores and the publisher are optional and may be nil.
type ScriptService struct {
	records     RecordStore
	generator   ScriptGenerator
	generations GenerationStore
	syncState   SyncStateStore
	txManager   TransactionManager
	publisher   Publisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewScriptService(
	records RecordStore,
	generator ScriptGenerator,
	generations GenerationStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *ScriptService {
	return &ScriptService{
		records:     records,
		generator:   generator,
		generations: generations,
		syncState:   syncState,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger.With("job", ScriptJob),
		now:         time.Now,
	}
}

// Sync processes the records currently in scripting, one at a time.
//
// ctx acts as the stop signal: once it is done no further record is started,
// but the record in flight is finished. Remote calls run detached from ctx and
// are bounded by the clients' own timeouts.
func (s *ScriptService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	work := context.WithoutCancel(ctx)

	records, err := s.records.FindRecordsByStatus(work, domain.StatusScripting)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	s.logger.Info("starting sync", "matched", len(records))

	stats := &domain.SyncStats{
		Job:     ScriptJob,
		Matched: len(records),
	}

	var lastPageID string
	for i := range records {
		if ctx.Err() != nil {
			stats.Stopped = true
			s.logger.Info("stop requested, leaving remaining records for the next run",
				"remaining", len(records)-i,
			)
			break
		}

		rec := &records[i]
		logger := s.logger.With("page_id", rec.ID, "title", rec.Title)

		if strings.TrimSpace(rec.Title) == "" {
			stats.Skipped++
			logger.Warn("skipping record", "error", domain.ErrMissingTitle)
			continue
		}

		gen, err := s.processRecord(work, rec, logger)
		if err != nil {
			stats.Failed++
			logger.Error("failed to process record", "error", err)
			continue
		}

		stats.Completed++
		lastPageID = rec.ID

		s.saveGeneration(work, gen, logger)

		if s.publisher != nil {
			if err := s.publisher.Publish(work, scriptReady(rec, gen)); err != nil {
				logger.Error("failed to publish script ready event", "error", err)
			} else {
				stats.Published++
			}
		}
	}

	s.updateSyncState(work, stats, lastPageID)

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"matched", stats.Matched,
		"completed", stats.Completed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"published", stats.Published,
		"stopped", stats.Stopped,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *ScriptService) processRecord(ctx context.Context, rec *domain.Record, logger *slog.Logger) (*domain.Generation, error) {
	logger.Info("generating script")

	script, err := s.generator.Generate(ctx, rec.Title, rec.DescriptionText())
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	content := blocks.Convert(script.Markdown)
	if len(content) == 0 {
		return nil, fmt.Errorf("convert script: %w", domain.ErrEmptyScript)
	}

	generatedAt := s.now().UTC()
	if err := s.records.UpdateRecord(ctx, rec.ID, content, domain.StatusReview, generatedAt); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	logger.Info("script written",
		"blocks", len(content),
		"model", script.Model,
		"finish_reason", script.FinishReason,
	)

	return &domain.Generation{
		ID:           uuid.NewString(),
		Job:          ScriptJob,
		PageID:       rec.ID,
		Title:        rec.Title,
		Model:        script.Model,
		PromptTokens: script.PromptTokens,
		OutputTokens: script.OutputTokens,
		BlockCount:   len(content),
		ScriptChars:  len([]rune(script.Markdown)),
		GeneratedAt:  generatedAt,
	}, nil
}

// saveGeneration writes the audit row. The record already moved to review,
// so a failure here is only logged.
func (s *ScriptService) saveGeneration(ctx context.Context, gen *domain.Generation, logger *slog.Logger) {
	if s.generations == nil {
		return
	}

	insert := func(ctx context.Context) error {
		if err := s.generations.Insert(ctx, gen); err != nil {
			return fmt.Errorf("insert generation: %w", err)
		}
		return nil
	}

	var err error
	if s.txManager != nil {
		err = s.txManager.WithTransaction(ctx, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		logger.Error("failed to record generation", "error", err)
	}
}

func (s *ScriptService) updateSyncState(ctx context.Context, stats *domain.SyncStats, lastPageID string) {
	if s.syncState == nil {
		return
	}

	state, err := s.syncState.Get(ctx, ScriptJob)
	if err != nil {
		s.logger.Error("failed to load sync state", "error", err)
		return
	}

	state.Job = ScriptJob
	state.LastSyncedAt = s.now().UTC()
	if lastPageID != "" {
		state.LastPageID = lastPageID
	}
	state.TotalCompleted += int64(stats.Completed)

	if err := s.syncState.Update(ctx, state); err != nil {
		s.logger.Error("failed to update sync state", "error", err)
	}
}

func scriptReady(rec *domain.Record, gen *domain.Generation) *domain.ScriptReady {
	return &domain.ScriptReady{
		PageID:      rec.ID,
		Title:       rec.Title,
		URL:         rec.URL,
		Status:      domain.StatusReview,
		Model:       gen.Model,
		BlockCount:  gen.BlockCount,
		GeneratedAt: gen.GeneratedAt,
	}
}
