package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/content-ingest/internal/api/dto"
	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/cuongbtq/content-ingest/internal/storage"
)

// SourceStore is the source persistence surface the handlers need.
type SourceStore interface {
	Create(ctx context.Context, src *domain.SourceConfig) error
	GetByID(ctx context.Context, sourceID string) (*domain.SourceConfig, error)
	Save(ctx context.Context, src *domain.SourceConfig) error
	List(ctx context.Context) ([]domain.SourceConfig, error)
}

// JobStore is the job persistence surface the handlers need.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
	List(ctx context.Context, filter storage.JobFilter) ([]domain.Job, error)
}

// ContentStore is the content read-model surface the handlers need.
type ContentStore interface {
	GetByID(ctx context.Context, contentID string) (*domain.ContentRecord, error)
	List(ctx context.Context, filter storage.ContentFilter) ([]domain.ContentRecord, error)
}

// Publisher pushes job messages onto the work queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Sources   SourceStore
	Jobs      JobStore
	Content   ContentStore
	Publisher Publisher
}

// SourceHandler handles source-related HTTP requests
type SourceHandler struct {
	logger  *slog.Logger
	sources SourceStore
}

// NewSourceHandler creates a new SourceHandler instance
func NewSourceHandler(deps *Dependencies) *SourceHandler {
	return &SourceHandler{
		logger:  deps.Logger,
		sources: deps.Sources,
	}
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	sources   SourceStore
	jobs      JobStore
	publisher Publisher
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		sources:   deps.Sources,
		jobs:      deps.Jobs,
		publisher: deps.Publisher,
	}
}

// ContentHandler handles content read-model HTTP requests
type ContentHandler struct {
	logger  *slog.Logger
	content ContentStore
}

// NewContentHandler creates a new ContentHandler instance
func NewContentHandler(deps *Dependencies) *ContentHandler {
	return &ContentHandler{
		logger:  deps.Logger,
		content: deps.Content,
	}
}

func sourceToDTO(src *domain.SourceConfig) dto.SourceDTO {
	return dto.SourceDTO{
		SourceID:            src.SourceID,
		AdapterType:         src.AdapterType,
		Name:                src.Name,
		Config:              src.Config,
		IsActive:            src.IsActive,
		IsHealthy:           !src.IsUnhealthy(),
		ConsecutiveFailures: src.ConsecutiveFailures,
		SuccessRate:         src.SuccessRate,
		TotalJobs:           src.TotalJobs,
		Version:             src.Version,
		CreatedAt:           src.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           src.UpdatedAt.Format(time.RFC3339),
	}
}

func jobToDTO(job *domain.Job) dto.JobDTO {
	out := dto.JobDTO{
		JobID:       job.JobID,
		SourceID:    job.SourceID,
		Status:      job.Status,
		ScheduledAt: job.ScheduledAt.Format(time.RFC3339),
		Metrics: dto.JobMetricsDTO{
			ItemsCollected:     job.Metrics.ItemsCollected,
			DuplicatesDetected: job.Metrics.DuplicatesDetected,
			ErrorsEncountered:  job.Metrics.ErrorsEncountered,
			BytesProcessed:     job.Metrics.BytesProcessed,
			DurationMs:         job.Metrics.DurationMs,
		},
		Version:   job.Version,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}

	if job.ExecutedAt != nil {
		out.ExecutedAt = job.ExecutedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		out.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	for _, jobErr := range job.Errors {
		out.Errors = append(out.Errors, dto.JobErrorDTO{
			Type:       jobErr.Type,
			Message:    jobErr.Message,
			Timestamp:  jobErr.Timestamp.Format(time.RFC3339),
			RetryCount: jobErr.RetryCount,
		})
	}

	return out
}

func contentToDTO(record *domain.ContentRecord, includeBody bool) dto.ContentDTO {
	out := dto.ContentDTO{
		ContentID:   record.ContentID,
		SourceID:    record.SourceID,
		ContentHash: record.ContentHash,
		Metadata: dto.MetadataDTO{
			Title:     record.Metadata.Title,
			Author:    record.Metadata.Author,
			Language:  record.Metadata.Language,
			SourceURL: record.Metadata.SourceURL,
		},
		CollectedAt: record.CollectedAt.Format(time.RFC3339),
		CreatedAt:   record.CreatedAt.Format(time.RFC3339),
	}

	if record.Metadata.PublishedAt != nil {
		out.Metadata.PublishedAt = record.Metadata.PublishedAt.Format(time.RFC3339)
	}
	for _, tag := range record.AssetTags {
		out.AssetTags = append(out.AssetTags, dto.AssetTagDTO{Type: tag.Type, Value: tag.Value})
	}
	if includeBody {
		out.RawContent = record.RawContent
		out.NormalizedContent = record.NormalizedContent
	}

	return out
}
