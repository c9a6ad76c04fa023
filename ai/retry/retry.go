// Package retry provides a single retry-with-backoff policy shared by all
// remote provider clients (LLM, embedding). Retryable conditions are decided
// by a predicate so each client keeps its own notion of transient failure.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// RetryAfterHint is implemented by errors carrying a provider-supplied
// retry-after delay (rate-limit responses). The hint overrides the computed
// backoff for that attempt.
type RetryAfterHint interface {
	RetryAfter() time.Duration
}

// Policy describes bounded exponential backoff.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter in [0, 1): fraction of the delay randomized away to avoid
	// synchronized retries.
	Jitter float64
}

// DefaultPolicy matches the provider clients' needs: 3 attempts, 500ms
// initial delay, doubling, capped at 8s.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Do runs op, retrying while retryable reports the error as transient.
// The last error is returned once attempts are exhausted. Context
// cancellation aborts between attempts.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts-1 {
			return err
		}

		delay := p.delayFor(attempt, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p *Policy) delayFor(attempt int, err error) time.Duration {
	var hint RetryAfterHint
	if errors.As(err, &hint) {
		if after := hint.RetryAfter(); after > 0 {
			return after
		}
	}

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if max := float64(p.MaxDelay); delay > max {
		delay = max
	}
	if p.Jitter > 0 {
		delay -= delay * p.Jitter * rand.Float64()
	}
	return time.Duration(delay)
}

// Transient reports whether an error looks like a temporary provider or
// network failure worth retrying. Authentication and malformed-request
// errors never match.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"temporary failure",
		"rate limit",
		"too many requests",
		"status code 429",
		"status code 5",
		"internal server error",
		"bad gateway",
		"service unavailable",
		"eof",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
