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

// ContentRepository handles ingested content records. Content is immutable
// once written, so there is no versioned save path here.
type ContentRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewContentRepository creates a ContentRepository.
func NewContentRepository(db *sqlx.DB, logger *slog.Logger) *ContentRepository {
	return &ContentRepository{db: db, logger: logger}
}

// Create inserts a new content record.
func (r *ContentRepository) Create(ctx context.Context, record *domain.ContentRecord) error {
	query := `
		INSERT INTO content (
			content_id, source_id, content_hash, raw_content, normalized_content,
			metadata, asset_tags, collected_at, version, created_at
		) VALUES (
			:content_id, :source_id, :content_hash, :raw_content, :normalized_content,
			:metadata, :asset_tags, :collected_at, :version, :created_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to create content record: %w", err)
	}

	return nil
}

// FindByHash is the deduplication lookup. A missing hash is not an error;
// it returns (nil, nil) so the pipeline can tell "new content" apart from a
// storage failure.
func (r *ContentRepository) FindByHash(ctx context.Context, hash string) (*domain.ContentRecord, error) {
	query := `
		SELECT content_id, source_id, content_hash, raw_content, normalized_content,
		       metadata, asset_tags, collected_at, version, created_at
		FROM content
		WHERE content_hash = $1
	`

	var record domain.ContentRecord
	if err := r.db.GetContext(ctx, &record, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find content by hash: %w", err)
	}

	return &record, nil
}

// GetByID loads a content record.
func (r *ContentRepository) GetByID(ctx context.Context, contentID string) (*domain.ContentRecord, error) {
	query := `
		SELECT content_id, source_id, content_hash, raw_content, normalized_content,
		       metadata, asset_tags, collected_at, version, created_at
		FROM content
		WHERE content_id = $1
	`

	var record domain.ContentRecord
	if err := r.db.GetContext(ctx, &record, query, contentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &record, nil
}

// ContentFilter narrows content listing.
type ContentFilter struct {
	SourceID string
	PageSize int
	Cursor   *ContentCursor
}

// ContentCursor is the keyset-pagination position for content listing.
type ContentCursor struct {
	CollectedAt time.Time
	ContentID   string
}

// List returns content records newest first, fetching one extra row so the
// caller can detect whether more pages exist.
func (r *ContentRepository) List(ctx context.Context, filter ContentFilter) ([]domain.ContentRecord, error) {
	query := `
		SELECT content_id, source_id, content_hash, raw_content, normalized_content,
		       metadata, asset_tags, collected_at, version, created_at
		FROM content
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.SourceID != "" {
		query += fmt.Sprintf(" AND source_id = $%d", argIdx)
		args = append(args, filter.SourceID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (collected_at, content_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CollectedAt, filter.Cursor.ContentID)
		argIdx += 2
	}

	query += " ORDER BY collected_at DESC, content_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var records []domain.ContentRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	return records, nil
}
