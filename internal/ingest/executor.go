package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/cuongbtq/content-ingest/internal/pipeline"
	"github.com/cuongbtq/content-ingest/internal/resilience"
)

// JobStore is the slice of the persistence boundary the executor needs for
// jobs. Save applies optimistic locking and returns
// domain.ErrConcurrencyConflict on a stale version.
type JobStore interface {
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
	Save(ctx context.Context, job *domain.Job) error
}

// SourceStore is the persistence boundary for source configurations.
type SourceStore interface {
	GetByID(ctx context.Context, sourceID string) (*domain.SourceConfig, error)
	Save(ctx context.Context, src *domain.SourceConfig) error
}

// Executor runs one ingestion job end to end: lifecycle transitions,
// resilient content collection, the per-item pipeline, and the single
// source-health update per completion.
type Executor struct {
	jobs          JobStore
	sources       SourceStore
	adapters      *AdapterRegistry
	dispatcher    *pipeline.Dispatcher
	retryPolicy   resilience.RetryPolicy
	breakerConfig resilience.BreakerConfig
	logger        *slog.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// ExecutorConfig wires the executor's collaborators.
type ExecutorConfig struct {
	Jobs          JobStore
	Sources       SourceStore
	Adapters      *AdapterRegistry
	Dispatcher    *pipeline.Dispatcher
	RetryPolicy   resilience.RetryPolicy
	BreakerConfig resilience.BreakerConfig
	Logger        *slog.Logger
}

// NewExecutor creates a job executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.RetryPolicy.MaxAttempts == 0 {
		cfg.RetryPolicy = resilience.DefaultJobRetryPolicy()
	}
	if cfg.BreakerConfig.FailureThreshold == 0 {
		cfg.BreakerConfig = resilience.DefaultBreakerConfig()
	}
	return &Executor{
		jobs:          cfg.Jobs,
		sources:       cfg.Sources,
		adapters:      cfg.Adapters,
		dispatcher:    cfg.Dispatcher,
		retryPolicy:   cfg.RetryPolicy,
		breakerConfig: cfg.BreakerConfig,
		logger:        cfg.Logger,
		breakers:      make(map[string]*resilience.Breaker),
	}
}

// ExecuteJob runs the job with the given id. Item-level pipeline failures
// are counted in metrics, never escalated; the job fails only when content
// collection itself exhausts its retry budget or job state cannot be saved.
func (e *Executor) ExecuteJob(ctx context.Context, jobID string) error {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if job.IsTerminal() {
		// Redelivered message for a finished job: nothing to do.
		e.logger.Warn("Job already in terminal status, skipping",
			slog.String("job_id", jobID),
			slog.String("status", job.Status),
		)
		return nil
	}

	src, err := e.sources.GetByID(ctx, job.SourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			// Pre-execution fatal error: fail the job without starting it.
			return e.failJob(ctx, job, nil, err, 0)
		}
		return fmt.Errorf("load source %s: %w", job.SourceID, err)
	}

	if err := job.Start(); err != nil {
		return err
	}
	if err := e.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("save running job %s: %w", jobID, err)
	}

	e.logger.Info("Job started",
		slog.String("job_id", job.JobID),
		slog.String("source_id", src.SourceID),
		slog.String("adapter_type", src.AdapterType),
	)

	started := time.Now()

	adapter, ok := e.adapters.Resolve(src.AdapterType)
	if !ok {
		return e.failJob(ctx, job, src,
			domain.NewAdapterStatusError(0, fmt.Sprintf("no adapter registered for source type %q", src.AdapterType)), 0)
	}

	breaker := e.breakerFor(src.SourceID)
	policy := e.retryPolicy
	policy.Retryable = domain.IsRetryable

	result := resilience.Retry(ctx, policy, func(ctx context.Context) ([]domain.RawContent, error) {
		var items []domain.RawContent
		err := breaker.Execute(ctx, func(ctx context.Context) error {
			collected, collectErr := adapter.Collect(ctx, src)
			items = collected
			return collectErr
		})
		return items, err
	})

	if !result.Success {
		e.logger.Error("Content collection failed",
			slog.String("job_id", job.JobID),
			slog.String("source_id", src.SourceID),
			slog.Int("attempts", result.Attempts),
			slog.Duration("total_time", result.TotalTime),
			slog.String("error", result.Err.Error()),
		)
		return e.failJob(ctx, job, src, result.Err, result.Attempts)
	}

	metrics := e.runPipeline(ctx, job, src, result.Value)
	metrics.DurationMs = time.Since(started).Milliseconds()

	if err := job.Complete(metrics); err != nil {
		return err
	}
	if err := e.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("save completed job %s: %w", jobID, err)
	}

	e.logger.Info("Job completed",
		slog.String("job_id", job.JobID),
		slog.String("source_id", src.SourceID),
		slog.Int("items_collected", metrics.ItemsCollected),
		slog.Int("duplicates_detected", metrics.DuplicatesDetected),
		slog.Int("errors_encountered", metrics.ErrorsEncountered),
		slog.Int64("bytes_processed", metrics.BytesProcessed),
		slog.Int64("duration_ms", metrics.DurationMs),
	)

	src.RecordSuccess()
	if err := e.sources.Save(ctx, src); err != nil {
		e.logger.Error("Failed to record source success",
			slog.String("source_id", src.SourceID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("record source success: %w", err)
	}

	return nil
}

// runPipeline drives each collected item through the stage sequence in
// order. Items are independent; a failed item only moves a counter.
func (e *Executor) runPipeline(ctx context.Context, job *domain.Job, src *domain.SourceConfig, items []domain.RawContent) domain.JobMetrics {
	metrics := domain.JobMetrics{ItemsCollected: len(items)}

	for _, item := range items {
		ev := pipeline.ContentCollected{}
		ev.JobID = job.JobID
		ev.SourceID = src.SourceID
		ev.SourceType = src.AdapterType
		ev.RawContent = item.Body
		ev.Provided = item.Metadata
		ev.CollectedAt = item.CollectedAt

		outcome := e.dispatcher.Run(ctx, ev)

		metrics.BytesProcessed += int64(len(item.Body))
		switch {
		case outcome.Failed:
			metrics.ErrorsEncountered++
		case outcome.WasDuplicate:
			metrics.DuplicatesDetected++
		}
	}

	return metrics
}

// failJob records the terminal failure and the source-health outcome. If the
// failure-path save itself fails, the original error is returned to the
// caller instead of looping.
func (e *Executor) failJob(ctx context.Context, job *domain.Job, src *domain.SourceConfig, cause error, attempts int) error {
	record := domain.JobError{
		Type:       e.classify(cause),
		Message:    cause.Error(),
		RetryCount: attempts,
	}

	if err := job.Fail(record); err != nil {
		return err
	}
	if err := e.jobs.Save(ctx, job); err != nil {
		e.logger.Error("Failed to save failed job, surfacing original error",
			slog.String("job_id", job.JobID),
			slog.String("save_error", err.Error()),
			slog.String("original_error", cause.Error()),
		)
		return cause
	}

	e.logger.Warn("Job failed",
		slog.String("job_id", job.JobID),
		slog.String("error_type", record.Type),
		slog.Int("attempts", attempts),
		slog.String("error", record.Message),
	)

	if src != nil {
		src.RecordFailure()
		if err := e.sources.Save(ctx, src); err != nil {
			e.logger.Error("Failed to record source failure",
				slog.String("source_id", src.SourceID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("record source failure: %w", err)
		}
	}

	return nil
}

func (e *Executor) classify(err error) string {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return domain.ErrTypeCircuitOpen
	}
	return domain.ClassifyError(err)
}

// breakerFor returns the per-source circuit breaker, creating it on first
// use. Breakers persist across jobs so repeated source failures accumulate.
func (e *Executor) breakerFor(sourceID string) *resilience.Breaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	breaker, ok := e.breakers[sourceID]
	if !ok {
		breaker = resilience.NewBreaker(e.breakerConfig)
		e.breakers[sourceID] = breaker
	}
	return breaker
}
