package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scriptgen/internal/domain"
)

// Policy configures exponential backoff between attempts.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Retryable decides which errors are retried. Defaults to domain.IsRetryable.
	Retryable func(error) bool
}

// Do calls fn until it succeeds, returns a non-retryable error or the
// attempts are exhausted. Only errors accepted by p.Retryable are retried.
func Do(ctx context.Context, p Policy, logger *slog.Logger, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = domain.IsRetryable
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if !retryable(err) || attempt == attempts {
			break
		}

		backoff := p.Backoff(attempt)
		logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if attempts > 1 && retryable(err) {
		return fmt.Errorf("after %d attempts: %w", attempts, err)
	}
	return err
}

// Backoff returns the wait before the attempt following the given one.
func (p Policy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	return backoff
}
