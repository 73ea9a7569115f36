package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialDelay:      time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          10 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "collected", nil
	})

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "collected", result.Value)
	assert.NoError(t, result.Err)
}

func TestRetry_PermanentFailureExhaustsAttempts(t *testing.T) {
	permErr := errors.New("permanent")
	calls := 0
	result := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, permErr
	})

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, result.Err, permErr)
}

func TestRetry_NonRetryableFailsFast(t *testing.T) {
	policy := fastPolicy(3)
	policy.Retryable = func(err error) bool { return false }

	calls := 0
	result := Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := Retry(ctx, policy, func(ctx context.Context) (int, error) {
		return 0, errors.New("transient")
	})

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 1, result.Attempts)
}

func TestRetryPolicy_DelayForAttempt(t *testing.T) {
	policy := DefaultJobRetryPolicy()

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first backoff", attempt: 1, want: 2 * time.Second},
		{name: "second backoff doubles", attempt: 2, want: 4 * time.Second},
		{name: "third backoff doubles again", attempt: 3, want: 8 * time.Second},
		{name: "capped at max delay", attempt: 10, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.delayForAttempt(tt.attempt))
		})
	}
}

func TestDefaultJobRetryPolicy(t *testing.T) {
	policy := DefaultJobRetryPolicy()

	require.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 2*time.Second, policy.InitialDelay)
	assert.Equal(t, float64(2), policy.BackoffMultiplier)
	assert.Equal(t, 30*time.Second, policy.MaxDelay)
}
