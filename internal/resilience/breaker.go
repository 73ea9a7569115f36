package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker refuses to call out.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the state of the circuit breaker
type BreakerState int

const (
	// BreakerClosed means calls pass through
	BreakerClosed BreakerState = iota
	// BreakerOpen means calls fail immediately without invoking the operation
	BreakerOpen
	// BreakerHalfOpen means one trial call is allowed through
	BreakerHalfOpen
)

// String returns the string representation of the state
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	FailureThreshold int
	// ResetWindow is how long the circuit stays open before allowing one
	// trial call.
	ResetWindow time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for job execution.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetWindow:      60 * time.Second,
	}
}

// Breaker stops calling a failing source once the failure threshold is
// reached. A success while closed or half-open resets the failure count; a
// half-open trial failure re-opens the circuit and refreshes the failure
// timestamp.
type Breaker struct {
	mu              sync.Mutex
	config          BreakerConfig
	state           BreakerState
	failureCount    int
	lastFailureTime time.Time
}

// NewBreaker creates a closed circuit breaker with the given configuration.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetWindow <= 0 {
		config.ResetWindow = 60 * time.Second
	}
	return &Breaker{
		config: config,
		state:  BreakerClosed,
	}
}

// Execute runs fn with circuit breaker protection. While open it fails
// immediately with ErrCircuitOpen until the reset window elapses.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterCall(err)
	return err
}

// beforeCall checks whether the breaker allows the next call.
func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if time.Since(b.lastFailureTime) > b.config.ResetWindow {
			// One trial call is allowed through.
			b.state = BreakerHalfOpen
			return nil
		}
		remaining := b.config.ResetWindow - time.Since(b.lastFailureTime)
		return fmt.Errorf("%w: retry after %v", ErrCircuitOpen, remaining.Round(time.Second))
	}

	return nil
}

// afterCall records the outcome of the call.
func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failureCount = 0
		b.state = BreakerClosed
		return
	}

	b.failureCount++
	b.lastFailureTime = time.Now()

	if b.state == BreakerHalfOpen || b.failureCount >= b.config.FailureThreshold {
		b.state = BreakerOpen
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}
