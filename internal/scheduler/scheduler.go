package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scriptgen/internal/domain"
)

// Syncer defines the interface for one polling cycle.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

type Config struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
	CycleTimeout time.Duration
	Once         bool
}

type Scheduler struct {
	syncer Syncer
	cfg    Config
	logger *slog.Logger
}

func NewScheduler(syncer Syncer, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = cfg.Interval
	}
	return &Scheduler{
		syncer: syncer,
		cfg:    cfg,
		logger: logger,
	}
}

// Start runs cycles until ctx is done. In once mode it runs a single cycle and
// returns its error. Otherwise it waits Interval between cycles, or
// ErrorBackoff after a failed one.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval,
		"error_backoff", s.cfg.ErrorBackoff,
		"once", s.cfg.Once,
	)

	for {
		err := s.runSync(ctx)
		if s.cfg.Once {
			s.logger.Info("single pass finished")
			return err
		}

		wait := s.cfg.Interval
		if err != nil {
			wait = s.cfg.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runSync gives the cycle a context that ends at the stop signal or after
// CycleTimeout, whichever comes first. The syncer stops between records when
// it is done.
func (s *Scheduler) runSync(ctx context.Context) error {
	syncCtx := ctx
	if s.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, s.cfg.CycleTimeout)
		defer cancel()
	}

	stats, err := s.syncer.Sync(syncCtx)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		return fmt.Errorf("sync: %w", err)
	}

	if stats != nil && stats.Stopped && ctx.Err() == nil {
		s.logger.Warn("cycle timed out before all records were processed",
			"job", stats.Job,
			"timeout", s.cfg.CycleTimeout,
		)
	}
	return nil
}
