// Package storage implements the persistence boundary over PostgreSQL. The
// job and source repositories apply optimistic locking: every save carries
// the version the aggregate had when its last transition was applied, and a
// stale version surfaces as domain.ErrConcurrencyConflict without retrying.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/jmoiron/sqlx"
)

// JobRepository handles job aggregate persistence.
type JobRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobRepository creates a JobRepository.
func NewJobRepository(db *sqlx.DB, logger *slog.Logger) *JobRepository {
	return &JobRepository{db: db, logger: logger}
}

// Create inserts a freshly scheduled job at version 0.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, source_id, status, scheduled_at, executed_at, completed_at,
			metrics, errors, version, created_at, updated_at
		) VALUES (
			:job_id, :source_id, :status, :scheduled_at, :executed_at, :completed_at,
			:metrics, :errors, :version, :created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID loads a job aggregate.
func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, source_id, status, scheduled_at, executed_at, completed_at,
		       metrics, errors, version, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	var job domain.Job
	if err := r.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// Save persists a committed state transition. The aggregate has already
// bumped its version in memory; the update applies only if the stored row
// still holds the previous version.
func (r *JobRepository) Save(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    executed_at = $2,
		    completed_at = $3,
		    metrics = $4,
		    errors = $5,
		    version = $6,
		    updated_at = $7
		WHERE job_id = $8
		  AND version = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		job.Status,
		job.ExecutedAt,
		job.CompletedAt,
		job.Metrics,
		job.Errors,
		job.Version,
		job.UpdatedAt,
		job.JobID,
		job.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Job save rejected - stale version",
			slog.String("job_id", job.JobID),
			slog.Int("version", job.Version),
		)
		return domain.ErrConcurrencyConflict
	}

	return nil
}

// JobFilter narrows job listing.
type JobFilter struct {
	SourceID string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is the keyset-pagination position for job listing.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// List returns jobs newest first, fetching one extra row so the caller can
// detect whether more pages exist.
func (r *JobRepository) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `
		SELECT job_id, source_id, status, scheduled_at, executed_at, completed_at,
		       metrics, errors, version, created_at, updated_at
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.SourceID != "" {
		query += fmt.Sprintf(" AND source_id = $%d", argIdx)
		args = append(args, filter.SourceID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// CountPendingForSource reports how many jobs for the source are not yet
// terminal; the scheduler uses it to avoid piling up work.
func (r *JobRepository) CountPendingForSource(ctx context.Context, sourceID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM jobs
		WHERE source_id = $1
		  AND status IN ($2, $3)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, sourceID, domain.JobStatusPending, domain.JobStatusRunning); err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	return count, nil
}
