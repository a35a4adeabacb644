package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "gumdl/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return &apperrors.Error{Type: apperrors.ErrorTypeNetwork, Message: "connection reset"}
		}
		return nil
	}, fastConfig(5))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	opErr := &apperrors.Error{Type: apperrors.ErrorTypeServerError, Message: "boom", Code: 500}
	err := Do(func() error {
		calls++
		return opErr
	}, fastConfig(3))

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, opErr) {
		t.Errorf("final error should wrap the last failure, got %v", err)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	authErr := &apperrors.Error{Type: apperrors.ErrorTypeAuthRedirect, Message: "session expired"}
	err := Do(func() error {
		calls++
		return authErr
	}, fastConfig(5))

	if !errors.Is(err, authErr) {
		t.Errorf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not be retried, got %d calls", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(func() error {
		calls++
		return &apperrors.Error{Type: apperrors.ErrorTypeNetwork, Message: "down"}
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	})

	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"network error", &apperrors.Error{Type: apperrors.ErrorTypeNetwork}, true},
		{"server error", &apperrors.Error{Type: apperrors.ErrorTypeServerError}, true},
		{"auth redirect", &apperrors.Error{Type: apperrors.ErrorTypeAuthRedirect}, false},
		{"parsing error", &apperrors.Error{Type: apperrors.ErrorTypeParsing}, false},
		{"not found", &apperrors.Error{Type: apperrors.ErrorTypeNotFound}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("anything"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.expected {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExponentialBackoffGrowth(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	if got := eb.NextDelay(1); got != time.Second {
		t.Errorf("first delay = %s, want 1s", got)
	}
	if got := eb.NextDelay(2); got != 2*time.Second {
		t.Errorf("second delay = %s, want 2s", got)
	}
	if got := eb.NextDelay(10); got != 10*time.Second {
		t.Errorf("delay should cap at max, got %s", got)
	}
	if got := eb.NextDelay(0); got != 0 {
		t.Errorf("non-positive attempt should yield 0, got %s", got)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	for i := 0; i < 100; i++ {
		d := eb.NextDelay(1)
		if d < 900*time.Millisecond || d > 1100*time.Millisecond {
			t.Fatalf("jittered delay %s outside [0.9s, 1.1s]", d)
		}
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("zero delay should return immediately: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled wait should return context error, got %v", err)
	}
}
