// Package retry runs a function with exponential backoff, respecting
// context cancellation between attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

type config struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// Option customizes retry behavior.
type Option func(*config)

// WithMaxRetries sets how many times to retry after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// Do runs fn, retrying on error with exponential backoff (defaults: 3
// retries, 1s initial delay doubling up to 30s). It returns nil as soon as
// an attempt succeeds, the last error once retries are exhausted, or a
// wrapped context error if the context ends during backoff.
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	cfg := &config{
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	if lastErr = fn(); lastErr == nil {
		return nil
	}

	for attempt := 1; attempt <= cfg.maxRetries; attempt++ {
		delay := cfg.delay(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

func (c *config) delay(attempt int) time.Duration {
	d := float64(c.initialDelay) * math.Pow(c.multiplier, float64(attempt-1))
	if time.Duration(d) > c.maxDelay {
		return c.maxDelay
	}
	return time.Duration(d)
}
