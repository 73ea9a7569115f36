package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

type fakeSourceLister struct {
	sources []domain.SourceConfig
	err     error
}

func (f *fakeSourceLister) ListActive(_ context.Context) ([]domain.SourceConfig, error) {
	return f.sources, f.err
}

type fakeJobCreator struct {
	created   []*domain.Job
	pending   map[string]int
	createErr error
}

func (f *fakeJobCreator) Create(_ context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, job)
	return nil
}

func (f *fakeJobCreator) CountPendingForSource(_ context.Context, sourceID string) (int, error) {
	return f.pending[sourceID], nil
}

type fakePublisher struct {
	published [][]byte
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, body []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

func healthySource(id string) domain.SourceConfig {
	return *domain.NewSourceConfig(id, "rss", "Feed "+id, domain.ConfigMap{"url": "https://example.com/" + id})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SourceRateLimit = rate.Inf
	return cfg
}

func newTestScheduler(lister *fakeSourceLister, jobs *fakeJobCreator, pub *fakePublisher, cfg Config) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(lister, jobs, pub, cfg, logger)
}

func TestTick_SchedulesActiveSources(t *testing.T) {
	lister := &fakeSourceLister{sources: []domain.SourceConfig{healthySource("source-1"), healthySource("source-2")}}
	jobs := &fakeJobCreator{pending: map[string]int{}}
	pub := &fakePublisher{}
	s := newTestScheduler(lister, jobs, pub, testConfig())

	err := s.Tick(context.Background())

	require.NoError(t, err)
	require.Len(t, jobs.created, 2)
	require.Len(t, pub.published, 2)

	var msg JobMessage
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, jobs.created[0].JobID, msg.JobID)
	assert.Equal(t, domain.JobStatusPending, jobs.created[0].Status)
	assert.Equal(t, "source-1", jobs.created[0].SourceID)
}

func TestTick_SkipsUnhealthySource(t *testing.T) {
	sick := healthySource("source-1")
	for i := 0; i < domain.UnhealthyConsecutiveFailures; i++ {
		sick.RecordFailure()
	}
	require.True(t, sick.IsUnhealthy())

	lister := &fakeSourceLister{sources: []domain.SourceConfig{sick, healthySource("source-2")}}
	jobs := &fakeJobCreator{pending: map[string]int{}}
	pub := &fakePublisher{}
	s := newTestScheduler(lister, jobs, pub, testConfig())

	err := s.Tick(context.Background())

	require.NoError(t, err)
	require.Len(t, jobs.created, 1)
	assert.Equal(t, "source-2", jobs.created[0].SourceID)
}

func TestTick_RespectsBacklogCap(t *testing.T) {
	lister := &fakeSourceLister{sources: []domain.SourceConfig{healthySource("source-1")}}
	jobs := &fakeJobCreator{pending: map[string]int{"source-1": 3}}
	pub := &fakePublisher{}
	cfg := testConfig()
	cfg.MaxPendingPerSource = 3
	s := newTestScheduler(lister, jobs, pub, cfg)

	err := s.Tick(context.Background())

	require.NoError(t, err)
	assert.Empty(t, jobs.created)
	assert.Empty(t, pub.published)
}

func TestTick_RateLimiterThrottlesRepeatTicks(t *testing.T) {
	lister := &fakeSourceLister{sources: []domain.SourceConfig{healthySource("source-1")}}
	jobs := &fakeJobCreator{pending: map[string]int{}}
	pub := &fakePublisher{}
	cfg := testConfig()
	cfg.SourceRateLimit = rate.Every(time.Hour)
	cfg.SourceBurst = 1
	s := newTestScheduler(lister, jobs, pub, cfg)

	require.NoError(t, s.Tick(context.Background()))
	require.NoError(t, s.Tick(context.Background()))

	assert.Len(t, jobs.created, 1, "second tick inside the window is throttled")
}

func TestTick_PublishFailureReported(t *testing.T) {
	lister := &fakeSourceLister{sources: []domain.SourceConfig{healthySource("source-1"), healthySource("source-2")}}
	jobs := &fakeJobCreator{pending: map[string]int{}}
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	s := newTestScheduler(lister, jobs, pub, testConfig())

	err := s.Tick(context.Background())

	assert.Error(t, err)
	assert.Len(t, jobs.created, 2, "each source still got its chance")
}

func TestTick_ListFailurePropagates(t *testing.T) {
	lister := &fakeSourceLister{err: errors.New("db down")}
	s := newTestScheduler(lister, &fakeJobCreator{pending: map[string]int{}}, &fakePublisher{}, testConfig())

	err := s.Tick(context.Background())

	assert.Error(t, err)
}
