package utils

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testRetry(attempts int) *RetryConfig {
	return &RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, Logger: NewLogger()}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testRetry(3).Do("flaky op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	if err := testRetry(5).Do("op", func() error { calls++; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cause := errors.New("connection refused")
	calls := 0
	err := testRetry(3).Do("ping", func() error { calls++; return cause })

	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error should wrap the last failure: %v", err)
	}
	if !strings.Contains(err.Error(), "ping failed after 3 attempts") {
		t.Errorf("error message: %q", err.Error())
	}
}
