// Package retry implements bounded retries with exponential backoff and
// jitter. Only errors wrapped with Retryable are retried; everything else
// is returned to the caller immediately.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config holds retry behavior for one call site.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	JitterRatio float64
}

// DefaultConfig returns the defaults used for external network calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterRatio: 0.1,
	}
}

// RetryableError marks an error as safe to retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so Do will retry it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is exhausted. The final error is unwrapped before being
// returned.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.delay(attempt)):
		}
	}

	var retryable *RetryableError
	if errors.As(lastErr, &retryable) {
		return zero, retryable.Err
	}
	return zero, lastErr
}

func (c Config) delay(attempt int) time.Duration {
	multiplier := c.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delay := float64(c.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterRatio > 0 {
		delay += delay * c.JitterRatio * (rand.Float64()*2 - 1)
	}

	return time.Duration(delay)
}
