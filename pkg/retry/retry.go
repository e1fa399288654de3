// Package retry provides a small bounded-retry helper with exponential
// back-off. It is used for individual search API calls, where a persistent
// failure must be skipped rather than abort the run.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds the parameters for the retry strategy. MaxAttempts counts the
// initial try, so MaxAttempts=3 means at most two retries.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do executes fn until it succeeds, the attempt budget is exhausted, or the
// context is canceled. The delay doubles after every failed attempt.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxAttempts && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
