package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Qualities lists thumbnail variants from best to worst.
var Qualities = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault", "default"}

var ErrNoThumbnail = errors.New("no thumbnail available")

// Prober finds which thumbnail variants exist for a video.
type Prober struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewProber(baseURL string, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// URL returns the image URL of one quality variant.
func (p *Prober) URL(videoID, quality string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", p.baseURL, videoID, quality)
}

// Best returns the URL of the highest quality variant that answers 200 to a
// HEAD request.
func (p *Prober) Best(ctx context.Context, videoID string) (string, error) {
	for _, quality := range Qualities {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		u := p.URL(videoID, quality)
		ok, err := p.exists(ctx, u)
		if err != nil {
			p.logger.Debug("thumbnail probe failed", "video_id", videoID, "quality", quality, "error", err)
			continue
		}
		if ok {
			return u, nil
		}
		p.logger.Debug("thumbnail not available", "video_id", videoID, "quality", quality)
	}
	return "", fmt.Errorf("video %s: %w", videoID, ErrNoThumbnail)
}

func (p *Prober) exists(ctx context.Context, u string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
