package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), testConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("got result=%q calls=%d, want ok/1", result, calls)
	}
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), testConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", Retryable(errors.New("temporary"))
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 3 {
		t.Errorf("got result=%q calls=%d, want ok/3", result, calls)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	_, err := Do(context.Background(), testConfig(), func() (string, error) {
		calls++
		return "", permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoUnwrapsAfterExhaustion(t *testing.T) {
	inner := errors.New("still failing")
	calls := 0
	_, err := Do(context.Background(), testConfig(), func() (string, error) {
		calls++
		return "", Retryable(inner)
	})

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected unwrapped inner error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("final error should not remain wrapped as retryable")
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	cfg.BaseDelay = time.Minute

	_, err := Do(ctx, cfg, func() (string, error) {
		return "", Retryable(errors.New("temporary"))
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
