package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrSourceNotFound is returned when a source cannot be found in the database
	ErrSourceNotFound = errors.New("source not found")

	// ErrContentNotFound is returned when a content record cannot be found
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidStateTransition marks a lifecycle misuse (programming error)
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConcurrencyConflict is returned when an optimistic-locked save finds
	// a stale version; the caller decides whether to reload and retry
	ErrConcurrencyConflict = errors.New("concurrency conflict: stale aggregate version")

	// ErrSourceInactive is returned when scheduling is attempted against a
	// deactivated source
	ErrSourceInactive = errors.New("source is inactive")

	// ErrSourceUnhealthy is returned when admission control rejects a source
	ErrSourceUnhealthy = errors.New("source is unhealthy")
)

// Error type labels recorded on job error entries.
const (
	ErrTypeAdapter     = "ADAPTER_ERROR"
	ErrTypeCircuitOpen = "CIRCUIT_OPEN"
	ErrTypeValidation  = "VALIDATION_FAILURE"
	ErrTypeConcurrency = "CONCURRENCY_CONFLICT"
	ErrTypeState       = "INVALID_STATE_TRANSITION"
	ErrTypeUnknown     = "UNKNOWN_ERROR"
)

// AdapterError wraps a content-collection failure. A 4xx status marks the
// error as non-retryable; it still counts toward the circuit breaker.
type AdapterError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AdapterError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("adapter error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "adapter error: " + e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the collection call may be attempted again.
func (e *AdapterError) Retryable() bool {
	return e.StatusCode < 400 || e.StatusCode > 499
}

// NewAdapterError wraps err as a retryable adapter failure.
func NewAdapterError(msg string, err error) error {
	return &AdapterError{Message: msg, Err: err}
}

// NewAdapterStatusError wraps an HTTP-classified adapter failure.
func NewAdapterStatusError(statusCode int, msg string) error {
	return &AdapterError{StatusCode: statusCode, Message: msg}
}

// IsRetryable classifies an error for the retry wrapper: adapter errors with
// a 4xx status fail fast, everything else is considered transient.
func IsRetryable(err error) bool {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Retryable()
	}
	return true
}

// ClassifyError maps an error to the job error-record type label.
func ClassifyError(err error) string {
	var adapterErr *AdapterError
	switch {
	case errors.As(err, &adapterErr):
		return ErrTypeAdapter
	case errors.Is(err, ErrConcurrencyConflict):
		return ErrTypeConcurrency
	case errors.Is(err, ErrInvalidStateTransition):
		return ErrTypeState
	default:
		return ErrTypeUnknown
	}
}
