package thumbnail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scriptgen/internal/domain"
	"scriptgen/internal/notion"
)

// Job names the thumbnail job in logs.
const Job = "thumbnails"

type PageStore interface {
	QueryPages(ctx context.Context, filter any) ([]notion.Page, error)
	UpdateURLProperty(ctx context.Context, pageID, property, url string) error
}

type Finder interface {
	Best(ctx context.Context, videoID string) (string, error)
}

type Config struct {
	URLProperty       string
	ThumbnailProperty string
}

type Service struct {
	pages  PageStore
	finder Finder
	cfg    Config
	logger *slog.Logger
}

func NewService(pages PageStore, finder Finder, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		pages:  pages,
		finder: finder,
		cfg:    cfg,
		logger: logger.With("job", Job),
	}
}

// Filter selects pages with a video URL and no thumbnail yet.
func (s *Service) Filter() map[string]any {
	return map[string]any{
		"and": []any{
			map[string]any{
				"property": s.cfg.URLProperty,
				"url":      map[string]any{"is_not_empty": true},
			},
			map[string]any{
				"property": s.cfg.ThumbnailProperty,
				"url":      map[string]any{"is_empty": true},
			},
		},
	}
}

// Sync runs one pass over pages missing a thumbnail. Like the script job it
// stops between pages once ctx is done.
func (s *Service) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	work := context.WithoutCancel(ctx)

	pages, err := s.pages.QueryPages(work, s.Filter())
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}

	stats := &domain.SyncStats{Job: Job, Matched: len(pages)}
	s.logger.Info("starting sync", "matched", len(pages))

	for i := range pages {
		if ctx.Err() != nil {
			stats.Stopped = true
			break
		}

		page := &pages[i]
		logger := s.logger.With("page_id", page.ID, "title", pageTitle(page))

		raw := page.Properties[s.cfg.URLProperty].PlainText()
		videoID, ok := ExtractVideoID(raw)
		if !ok {
			stats.Skipped++
			logger.Warn("skipping page without a recognizable video url", "url", raw)
			continue
		}

		thumb, err := s.finder.Best(work, videoID)
		if err != nil {
			stats.Failed++
			logger.Error("failed to find thumbnail", "video_id", videoID, "error", err)
			continue
		}

		if err := s.pages.UpdateURLProperty(work, page.ID, s.cfg.ThumbnailProperty, thumb); err != nil {
			stats.Failed++
			logger.Error("failed to update thumbnail", "video_id", videoID, "error", err)
			continue
		}

		stats.Completed++
		logger.Info("thumbnail set", "video_id", videoID, "thumbnail", thumb)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"matched", stats.Matched,
		"completed", stats.Completed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"stopped", stats.Stopped,
		"duration", stats.Duration,
	)

	return stats, nil
}

func pageTitle(p *notion.Page) string {
	for _, prop := range p.Properties {
		if prop.Type == "title" {
			return prop.PlainText()
		}
	}
	return ""
}
