package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/catalog/internal/retry"
)

var errTransient = errors.New("transient")

func transientOnly(err error) bool { return errors.Is(err, errTransient) }

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := retry.Do(context.Background(), retry.Config{MaxAttempts: 3, Retryable: transientOnly},
		func(context.Context) (int, error) {
			calls++
			return 42, nil
		})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := retry.Do(context.Background(),
		retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: transientOnly},
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errTransient
			}
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, err := retry.Do(context.Background(),
		retry.Config{MaxAttempts: 5, BaseDelay: time.Millisecond, Retryable: transientOnly},
		func(context.Context) (int, error) {
			calls++
			return 0, fatal
		})

	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(),
		retry.Config{MaxAttempts: 4, BaseDelay: time.Millisecond, Retryable: transientOnly},
		func(context.Context) (int, error) {
			calls++
			return 0, errTransient
		})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error after exhaustion, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := retry.Do(ctx,
		retry.Config{MaxAttempts: 10, BaseDelay: time.Minute, Retryable: transientOnly},
		func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errTransient
		})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDoSingleAttemptWhenMaxAttemptsBelowOne(t *testing.T) {
	calls := 0
	_, err := retry.Do(context.Background(), retry.Config{MaxAttempts: 0},
		func(context.Context) (int, error) {
			calls++
			return 0, errTransient
		})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}
