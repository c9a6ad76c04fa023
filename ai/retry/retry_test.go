package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func fastPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	}, Transient)

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid api key")
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, Transient)

	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent error)", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}, Transient)

	if err == nil {
		t.Fatal("Do() should surface the last error after exhaustion")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

type rateLimitErr struct {
	after time.Duration
}

func (e *rateLimitErr) Error() string             { return "rate limit exceeded" }
func (e *rateLimitErr) RetryAfter() time.Duration { return e.after }

func TestRetryAfterHintHonored(t *testing.T) {
	p := fastPolicy()
	start := time.Now()
	calls := 0
	_ = p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return &rateLimitErr{after: 30 * time.Millisecond}
		}
		return nil
	}, Transient)

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 30ms from retry-after hint", elapsed)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 2.0}

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context) error {
			return errors.New("timeout")
		}, Transient)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do() did not return after cancellation")
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout string", errors.New("request timeout"), true},
		{"rate limit", errors.New("429 Too Many Requests"), true},
		{"server error", fmt.Errorf("wrapping: %w", errors.New("status code 503 service unavailable")), true},
		{"net error", &net.DNSError{IsTimeout: true}, true},
		{"auth failure", errors.New("invalid api key"), false},
		{"malformed request", errors.New("400 bad request: missing field"), false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
