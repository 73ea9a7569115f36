package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/jmoiron/sqlx"
)

// SourceRepository handles source configuration persistence.
type SourceRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSourceRepository creates a SourceRepository.
func NewSourceRepository(db *sqlx.DB, logger *slog.Logger) *SourceRepository {
	return &SourceRepository{db: db, logger: logger}
}

// Create inserts a new source at version 0.
func (r *SourceRepository) Create(ctx context.Context, src *domain.SourceConfig) error {
	query := `
		INSERT INTO sources (
			source_id, adapter_type, name, config, credentials, is_active,
			consecutive_failures, success_rate, total_jobs,
			last_success_at, last_failure_at,
			version, created_at, updated_at
		) VALUES (
			:source_id, :adapter_type, :name, :config, :credentials, :is_active,
			:consecutive_failures, :success_rate, :total_jobs,
			:last_success_at, :last_failure_at,
			:version, :created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, src); err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	return nil
}

// GetByID loads a source configuration.
func (r *SourceRepository) GetByID(ctx context.Context, sourceID string) (*domain.SourceConfig, error) {
	query := `
		SELECT source_id, adapter_type, name, config, credentials, is_active,
		       consecutive_failures, success_rate, total_jobs,
		       last_success_at, last_failure_at,
		       version, created_at, updated_at
		FROM sources
		WHERE source_id = $1
	`

	var src domain.SourceConfig
	if err := r.db.GetContext(ctx, &src, query, sourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &src, nil
}

// Save persists config and health changes with the same version check the
// job repository applies.
func (r *SourceRepository) Save(ctx context.Context, src *domain.SourceConfig) error {
	query := `
		UPDATE sources
		SET adapter_type = $1,
		    name = $2,
		    config = $3,
		    credentials = $4,
		    is_active = $5,
		    consecutive_failures = $6,
		    success_rate = $7,
		    total_jobs = $8,
		    last_success_at = $9,
		    last_failure_at = $10,
		    version = $11,
		    updated_at = $12
		WHERE source_id = $13
		  AND version = $14
	`

	result, err := r.db.ExecContext(ctx, query,
		src.AdapterType,
		src.Name,
		src.Config,
		src.Credentials,
		src.IsActive,
		src.ConsecutiveFailures,
		src.SuccessRate,
		src.TotalJobs,
		src.LastSuccessAt,
		src.LastFailureAt,
		src.Version,
		src.UpdatedAt,
		src.SourceID,
		src.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Source save rejected - stale version",
			slog.String("source_id", src.SourceID),
			slog.Int("version", src.Version),
		)
		return domain.ErrConcurrencyConflict
	}

	return nil
}

// ListActive returns every active source, used by the scheduler tick.
func (r *SourceRepository) ListActive(ctx context.Context) ([]domain.SourceConfig, error) {
	query := `
		SELECT source_id, adapter_type, name, config, credentials, is_active,
		       consecutive_failures, success_rate, total_jobs,
		       last_success_at, last_failure_at,
		       version, created_at, updated_at
		FROM sources
		WHERE is_active = true
		ORDER BY created_at ASC
	`

	var sources []domain.SourceConfig
	if err := r.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}

	return sources, nil
}

// List returns all sources, newest first.
func (r *SourceRepository) List(ctx context.Context) ([]domain.SourceConfig, error) {
	query := `
		SELECT source_id, adapter_type, name, config, credentials, is_active,
		       consecutive_failures, success_rate, total_jobs,
		       last_success_at, last_failure_at,
		       version, created_at, updated_at
		FROM sources
		ORDER BY created_at DESC
	`

	var sources []domain.SourceConfig
	if err := r.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	return sources, nil
}
