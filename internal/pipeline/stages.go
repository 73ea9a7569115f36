package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/google/uuid"
)

// Normalizer is the external normalization collaborator.
type Normalizer interface {
	Normalize(raw, sourceType string) (string, error)
	ExtractMetadata(raw, sourceType string) (domain.ContentMetadata, error)
	DetectAssets(content string) []domain.AssetTag
}

// ValidationReport is the quality-validation verdict for one content item.
type ValidationReport struct {
	IsValid      bool
	Errors       []string
	QualityScore float64
}

// Validator is the external quality-validation collaborator.
type Validator interface {
	ValidateQuality(content string, metadata domain.ContentMetadata) ValidationReport
}

// Hasher computes the deduplication key. It must be a pure function of the
// normalized content.
type Hasher interface {
	ComputeHash(content string) string
}

// ContentStore is the slice of the persistence boundary the pipeline needs:
// a content-addressed lookup and an insert. FindByHash returns (nil, nil)
// when no record exists.
type ContentStore interface {
	FindByHash(ctx context.Context, hash string) (*domain.ContentRecord, error)
	Create(ctx context.Context, record *domain.ContentRecord) error
}

// Stages holds the four stage handlers and their collaborators.
type Stages struct {
	normalizer Normalizer
	validator  Validator
	hasher     Hasher
	store      ContentStore
	logger     *slog.Logger
}

// NewStages wires the stage handlers with their collaborators.
func NewStages(normalizer Normalizer, validator Validator, hasher Hasher, store ContentStore, logger *slog.Logger) *Stages {
	return &Stages{
		normalizer: normalizer,
		validator:  validator,
		hasher:     hasher,
		store:      store,
		logger:     logger,
	}
}

// HandleCollected normalizes raw content, merges caller-supplied metadata
// with extracted metadata (caller wins), and detects asset tags on the
// normalized text.
func (s *Stages) HandleCollected(ctx context.Context, ev ContentCollected) (ContentNormalized, error) {
	normalized, err := s.normalizer.Normalize(ev.RawContent, ev.SourceType)
	if err != nil {
		return ContentNormalized{}, fmt.Errorf("normalize content: %w", err)
	}

	extracted, err := s.normalizer.ExtractMetadata(ev.RawContent, ev.SourceType)
	if err != nil {
		return ContentNormalized{}, fmt.Errorf("extract metadata: %w", err)
	}

	next := ContentNormalized{Envelope: ev.Envelope}
	next.Normalized = normalized
	next.Metadata = ev.Provided.Merge(extracted)
	next.AssetTags = s.normalizer.DetectAssets(normalized)

	s.logger.Debug("Content normalized",
		slog.String("job_id", ev.JobID),
		slog.String("source_id", ev.SourceID),
		slog.Int("normalized_len", len(normalized)),
		slog.Int("asset_tags", len(next.AssetTags)),
	)

	return next, nil
}

// HandleNormalized runs quality validation. Exactly one of the returned
// events is set: the validated event on the continue branch, or the failure
// event that terminates this item.
func (s *Stages) HandleNormalized(ctx context.Context, ev ContentNormalized) (QualityValidated, *ValidationFailed, error) {
	report := s.validator.ValidateQuality(ev.Normalized, ev.Metadata)

	if !report.IsValid {
		return QualityValidated{}, &ValidationFailed{
			JobID:        ev.JobID,
			SourceID:     ev.SourceID,
			RawExcerpt:   Excerpt(ev.RawContent),
			Errors:       report.Errors,
			QualityScore: report.QualityScore,
		}, nil
	}

	return QualityValidated{Envelope: ev.Envelope, QualityScore: report.QualityScore}, nil, nil
}

// HandleValidated computes the content hash and checks the content-addressed
// index. The stage has no side effects beyond the read.
func (s *Stages) HandleValidated(ctx context.Context, ev QualityValidated) (DeduplicationChecked, error) {
	hash := s.hasher.ComputeHash(ev.Normalized)

	existing, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		return DeduplicationChecked{}, fmt.Errorf("dedup lookup for hash %s: %w", hash, err)
	}

	next := DeduplicationChecked{Envelope: ev.Envelope, ContentHash: hash}
	if existing != nil {
		next.IsDuplicate = true
		next.ExistingContentID = existing.ContentID
	}

	return next, nil
}

// HandleDeduplicationChecked persists a new content record unless the item
// is a duplicate, and emits the terminal Ingested event in either case.
func (s *Stages) HandleDeduplicationChecked(ctx context.Context, ev DeduplicationChecked) (ContentIngested, error) {
	if ev.IsDuplicate {
		s.logger.Debug("Duplicate content skipped",
			slog.String("job_id", ev.JobID),
			slog.String("content_hash", ev.ContentHash),
			slog.String("existing_content_id", ev.ExistingContentID),
		)
		return ContentIngested{
			JobID:        ev.JobID,
			SourceID:     ev.SourceID,
			ContentID:    ev.ExistingContentID,
			ContentHash:  ev.ContentHash,
			WasDuplicate: true,
		}, nil
	}

	record := domain.NewContentRecord(
		uuid.New().String(),
		ev.SourceID,
		ev.ContentHash,
		ev.RawContent,
		ev.Normalized,
		ev.Metadata,
		ev.AssetTags,
		ev.CollectedAt,
	)

	if err := s.store.Create(ctx, record); err != nil {
		return ContentIngested{}, fmt.Errorf("persist content record: %w", err)
	}

	return ContentIngested{
		JobID:       ev.JobID,
		SourceID:    ev.SourceID,
		ContentID:   record.ContentID,
		ContentHash: ev.ContentHash,
	}, nil
}
