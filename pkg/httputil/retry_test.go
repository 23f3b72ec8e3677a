package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetry_RetriesRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("daemon busy"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	permanent := errors.New("no such container")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Retry() = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("timeout")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return Retryable(transient)
	})
	if !errors.Is(err, transient) {
		t.Fatalf("Retry() = %v, want wrapped %v", err, transient)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Minute, func() error {
		return Retryable(errors.New("transient"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Retryable(errors.New("x"))) {
		t.Error("IsRetryable(Retryable) = false")
	}
	if IsRetryable(errors.New("x")) {
		t.Error("IsRetryable(plain) = true")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
}
