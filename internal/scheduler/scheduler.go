// Package scheduler turns active sources into pending jobs on a cron
// cadence. Unhealthy sources are skipped until their streak recovers, and a
// per-source token bucket keeps a misconfigured cadence from flooding the
// queue.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

// SourceLister loads the sources eligible for scheduling.
type SourceLister interface {
	ListActive(ctx context.Context) ([]domain.SourceConfig, error)
}

// JobCreator persists new jobs and reports backlog per source.
type JobCreator interface {
	Create(ctx context.Context, job *domain.Job) error
	CountPendingForSource(ctx context.Context, sourceID string) (int, error)
}

// Publisher pushes job messages onto the work queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// JobMessage is the queue payload consumed by the worker service.
type JobMessage struct {
	JobID string `json:"job_id"`
}

// Config holds scheduler tuning.
type Config struct {
	// CronSpec is the tick cadence in cron syntax.
	CronSpec string
	// MaxPendingPerSource caps the backlog a single source may build up.
	MaxPendingPerSource int
	// SourceRateLimit is the sustained jobs-per-second allowance per source.
	SourceRateLimit rate.Limit
	// SourceBurst is the token bucket size per source.
	SourceBurst int
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		CronSpec:            "*/5 * * * *",
		MaxPendingPerSource: 3,
		SourceRateLimit:     rate.Every(time.Minute),
		SourceBurst:         2,
	}
}

// Scheduler runs the cron loop.
type Scheduler struct {
	sources   SourceLister
	jobs      JobCreator
	publisher Publisher
	config    Config
	logger    *slog.Logger
	cron      *cron.Cron

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Scheduler.
func New(sources SourceLister, jobs JobCreator, publisher Publisher, config Config, logger *slog.Logger) *Scheduler {
	if config.CronSpec == "" {
		config.CronSpec = DefaultConfig().CronSpec
	}
	if config.MaxPendingPerSource <= 0 {
		config.MaxPendingPerSource = DefaultConfig().MaxPendingPerSource
	}
	if config.SourceRateLimit <= 0 {
		config.SourceRateLimit = DefaultConfig().SourceRateLimit
	}
	if config.SourceBurst <= 0 {
		config.SourceBurst = DefaultConfig().SourceBurst
	}

	return &Scheduler{
		sources:   sources,
		jobs:      jobs,
		publisher: publisher,
		config:    config,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Start registers the tick and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.config.CronSpec, func() {
		if tickErr := s.Tick(ctx); tickErr != nil {
			s.logger.Error("Scheduler tick failed", slog.String("error", tickErr.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register scheduler tick: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", slog.String("cron_spec", s.config.CronSpec))

	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Tick runs one scheduling pass over the active sources. Failures on one
// source do not stop the pass; the first error is reported after every
// source had its chance.
func (s *Scheduler) Tick(ctx context.Context) error {
	sources, err := s.sources.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sources: %w", err)
	}

	var firstErr error
	scheduled := 0
	for i := range sources {
		src := &sources[i]

		ok, scheduleErr := s.scheduleSource(ctx, src)
		if scheduleErr != nil {
			s.logger.Error("Failed to schedule source",
				slog.String("source_id", src.SourceID),
				slog.String("error", scheduleErr.Error()),
			)
			if firstErr == nil {
				firstErr = scheduleErr
			}
			continue
		}
		if ok {
			scheduled++
		}
	}

	s.logger.Info("Scheduler tick finished",
		slog.Int("sources", len(sources)),
		slog.Int("jobs_scheduled", scheduled),
	)

	return firstErr
}

func (s *Scheduler) scheduleSource(ctx context.Context, src *domain.SourceConfig) (bool, error) {
	if src.IsUnhealthy() {
		s.logger.Warn("Skipping unhealthy source",
			slog.String("source_id", src.SourceID),
			slog.Int("consecutive_failures", src.ConsecutiveFailures),
			slog.Float64("success_rate", src.SuccessRate),
		)
		return false, nil
	}

	if !s.limiterFor(src.SourceID).Allow() {
		s.logger.Debug("Source rate limited", slog.String("source_id", src.SourceID))
		return false, nil
	}

	pending, err := s.jobs.CountPendingForSource(ctx, src.SourceID)
	if err != nil {
		return false, fmt.Errorf("failed to count backlog: %w", err)
	}
	if pending >= s.config.MaxPendingPerSource {
		s.logger.Warn("Source backlog full",
			slog.String("source_id", src.SourceID),
			slog.Int("pending", pending),
		)
		return false, nil
	}

	job := domain.NewJob(uuid.New().String(), src.SourceID, time.Now().UTC())
	if err := s.jobs.Create(ctx, job); err != nil {
		return false, fmt.Errorf("failed to create job: %w", err)
	}

	body, err := json.Marshal(JobMessage{JobID: job.JobID})
	if err != nil {
		return false, fmt.Errorf("failed to marshal job message: %w", err)
	}
	if err := s.publisher.Publish(ctx, body, "application/json"); err != nil {
		return false, fmt.Errorf("failed to publish job message: %w", err)
	}

	s.logger.Info("Job scheduled",
		slog.String("job_id", job.JobID),
		slog.String("source_id", src.SourceID),
	)

	return true, nil
}

func (s *Scheduler) limiterFor(sourceID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[sourceID]
	if !ok {
		limiter = rate.NewLimiter(s.config.SourceRateLimit, s.config.SourceBurst)
		s.limiters[sourceID] = limiter
	}
	return limiter
}
