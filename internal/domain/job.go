package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Job status constants
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// JobMetrics holds the counters reported when an ingestion job reaches a
// terminal status.
type JobMetrics struct {
	ItemsCollected     int   `json:"items_collected"`
	DuplicatesDetected int   `json:"duplicates_detected"`
	ErrorsEncountered  int   `json:"errors_encountered"`
	BytesProcessed     int64 `json:"bytes_processed"`
	DurationMs         int64 `json:"duration_ms"`
}

// Value implements driver.Valuer so metrics are stored as JSONB.
func (m JobMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB metrics columns.
func (m *JobMetrics) Scan(value interface{}) error {
	if value == nil {
		*m = JobMetrics{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JobMetrics", value)
	}
	return json.Unmarshal(b, m)
}

// JobError is one recorded failure on a job.
type JobError struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Stack      string    `json:"stack,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
}

// JobErrorList is the ordered list of error records on a job, stored as JSONB.
type JobErrorList []JobError

// Value implements driver.Valuer.
func (l JobErrorList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]JobError{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *JobErrorList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JobErrorList", value)
	}
	return json.Unmarshal(b, l)
}

// Job is the ingestion job aggregate. Status moves one way through
// PENDING -> RUNNING -> COMPLETED/FAILED and the version increments exactly
// once per committed transition. Retries happen inside the single RUNNING
// window; only the terminal outcome is recorded here.
type Job struct {
	JobID       string       `db:"job_id"`
	SourceID    string       `db:"source_id"`
	Status      string       `db:"status"`
	ScheduledAt time.Time    `db:"scheduled_at"`
	ExecutedAt  *time.Time   `db:"executed_at"`
	CompletedAt *time.Time   `db:"completed_at"`
	Metrics     JobMetrics   `db:"metrics"`
	Errors      JobErrorList `db:"errors"`
	Version     int          `db:"version"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// NewJob creates a PENDING job at version 0 for the given source.
func NewJob(jobID, sourceID string, scheduledAt time.Time) *Job {
	now := time.Now().UTC()
	if scheduledAt.IsZero() {
		scheduledAt = now
	}
	return &Job{
		JobID:       jobID,
		SourceID:    sourceID,
		Status:      JobStatusPending,
		ScheduledAt: scheduledAt,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start transitions the job from PENDING to RUNNING.
func (j *Job) Start() error {
	if j.Status != JobStatusPending {
		return fmt.Errorf("%w: cannot start job in status %s", ErrInvalidStateTransition, j.Status)
	}
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.ExecutedAt = &now
	j.UpdatedAt = now
	j.Version++
	return nil
}

// Complete transitions the job from RUNNING to COMPLETED and records the
// final metrics.
func (j *Job) Complete(metrics JobMetrics) error {
	if j.Status != JobStatusRunning {
		return fmt.Errorf("%w: cannot complete job in status %s", ErrInvalidStateTransition, j.Status)
	}
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Metrics = metrics
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.Version++
	return nil
}

// Fail transitions the job to FAILED and appends the error record. A PENDING
// job may fail directly for pre-execution fatal errors.
func (j *Job) Fail(jobErr JobError) error {
	if j.Status != JobStatusRunning && j.Status != JobStatusPending {
		return fmt.Errorf("%w: cannot fail job in status %s", ErrInvalidStateTransition, j.Status)
	}
	now := time.Now().UTC()
	if jobErr.Timestamp.IsZero() {
		jobErr.Timestamp = now
	}
	j.Status = JobStatusFailed
	j.Errors = append(j.Errors, jobErr)
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.Version++
	return nil
}

// IsTerminal reports whether the job reached COMPLETED or FAILED.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
