package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCollect = errors.New("collect failed")

func failingCall(calls *int) func(context.Context) error {
	return func(ctx context.Context) error {
		*calls++
		return errCollect
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 5, ResetWindow: time.Minute})
	ctx := context.Background()

	calls := 0
	for i := 0; i < 5; i++ {
		err := breaker.Execute(ctx, failingCall(&calls))
		require.ErrorIs(t, err, errCollect)
	}
	assert.Equal(t, BreakerOpen, breaker.State())
	assert.Equal(t, 5, calls)

	// Next call must fail immediately without invoking the operation.
	err := breaker.Execute(ctx, failingCall(&calls))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 5, calls)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 5, ResetWindow: time.Minute})
	ctx := context.Background()

	calls := 0
	for i := 0; i < 4; i++ {
		_ = breaker.Execute(ctx, failingCall(&calls))
	}
	require.Equal(t, 4, breaker.FailureCount())

	err := breaker.Execute(ctx, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 0, breaker.FailureCount())
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestBreaker_HalfOpenTrialAfterResetWindow(t *testing.T) {
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetWindow: 20 * time.Millisecond})
	ctx := context.Background()

	calls := 0
	_ = breaker.Execute(ctx, failingCall(&calls))
	_ = breaker.Execute(ctx, failingCall(&calls))
	require.Equal(t, BreakerOpen, breaker.State())

	// Still inside the reset window: refused without a call.
	err := breaker.Execute(ctx, failingCall(&calls))
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, 2, calls)

	time.Sleep(30 * time.Millisecond)

	// One trial call is allowed; its success closes the circuit.
	err = breaker.Execute(ctx, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetWindow: 20 * time.Millisecond})
	ctx := context.Background()

	calls := 0
	_ = breaker.Execute(ctx, failingCall(&calls))
	_ = breaker.Execute(ctx, failingCall(&calls))
	require.Equal(t, BreakerOpen, breaker.State())

	time.Sleep(30 * time.Millisecond)

	// Trial call fails: circuit reopens and the window restarts.
	err := breaker.Execute(ctx, failingCall(&calls))
	require.ErrorIs(t, err, errCollect)
	assert.Equal(t, BreakerOpen, breaker.State())

	err = breaker.Execute(ctx, failingCall(&calls))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, calls)
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(99).String())
}
