// Package resilience wraps content-collection calls with backoff retry and
// failure-rate circuit breaking. The breaker guards the innermost call and
// the retry loop wraps the breaker, so each attempt within one job execution
// independently observes and can trip the breaker.
package resilience

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy configures the backoff retry loop.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	// Retryable classifies errors; a nil classifier treats every error as
	// transient. Non-retryable errors stop the loop immediately.
	Retryable func(error) bool
}

// DefaultJobRetryPolicy is the policy used for job execution: delays of
// 2s and 4s between the three attempts, capped at 30s.
func DefaultJobRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      2 * time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          30 * time.Second,
	}
}

// Result records the outcome of a retried operation. Retry never panics;
// callers inspect Success.
type Result[T any] struct {
	Success   bool
	Value     T
	Err       error
	Attempts  int
	TotalTime time.Duration
}

// Retry executes op up to policy.MaxAttempts times, sleeping with
// exponential backoff between failures. A canceled context or a
// non-retryable error ends the loop early.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) Result[T] {
	start := time.Now()
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return Result[T]{
				Success:   true,
				Value:     value,
				Attempts:  attempt,
				TotalTime: time.Since(start),
			}
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			slog.Debug("operation failed with non-retryable error",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return Result[T]{Err: err, Attempts: attempt, TotalTime: time.Since(start)}
		}

		if attempt == attempts {
			break
		}

		delay := policy.delayForAttempt(attempt)
		slog.Debug("operation failed, retrying after backoff",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result[T]{Err: ctx.Err(), Attempts: attempt, TotalTime: time.Since(start)}
		case <-timer.C:
		}
	}

	return Result[T]{Err: lastErr, Attempts: attempts, TotalTime: time.Since(start)}
}

// delayForAttempt computes min(initial * multiplier^(attempt-1), max).
func (p RetryPolicy) delayForAttempt(attempt int) time.Duration {
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
	}
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}
