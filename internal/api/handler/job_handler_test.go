package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/content-ingest/internal/api/dto"
	"github.com/cuongbtq/content-ingest/internal/domain"
	"github.com/cuongbtq/content-ingest/internal/storage"
)

type fakeSourceStore struct {
	sources map[string]*domain.SourceConfig
}

func (f *fakeSourceStore) Create(_ context.Context, src *domain.SourceConfig) error {
	f.sources[src.SourceID] = src
	return nil
}

func (f *fakeSourceStore) GetByID(_ context.Context, sourceID string) (*domain.SourceConfig, error) {
	src, ok := f.sources[sourceID]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	copied := *src
	return &copied, nil
}

func (f *fakeSourceStore) Save(_ context.Context, src *domain.SourceConfig) error {
	f.sources[src.SourceID] = src
	return nil
}

func (f *fakeSourceStore) List(_ context.Context) ([]domain.SourceConfig, error) {
	out := make([]domain.SourceConfig, 0, len(f.sources))
	for _, src := range f.sources {
		out = append(out, *src)
	}
	return out, nil
}

type fakeJobStore struct {
	jobs map[string]*domain.Job
}

func (f *fakeJobStore) Create(_ context.Context, job *domain.Job) error {
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobStore) List(_ context.Context, _ storage.JobFilter) ([]domain.Job, error) {
	out := make([]domain.Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, *job)
	}
	return out, nil
}

type fakePublisher struct {
	published [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, body []byte, _ string) error {
	f.published = append(f.published, body)
	return nil
}

type handlerFixture struct {
	sources   *fakeSourceStore
	jobs      *fakeJobStore
	publisher *fakePublisher
	handler   *JobHandler
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		sources:   &fakeSourceStore{sources: map[string]*domain.SourceConfig{}},
		jobs:      &fakeJobStore{jobs: map[string]*domain.Job{}},
		publisher: &fakePublisher{},
	}
	f.handler = NewJobHandler(&Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sources:   f.sources,
		Jobs:      f.jobs,
		Publisher: f.publisher,
	})
	return f
}

func (f *handlerFixture) scheduleJob(t *testing.T, sourceID string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(dto.ScheduleJobRequest{SourceID: sourceID})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	f.handler.ScheduleJob(c)
	return rec
}

func TestScheduleJob_CreatesAndPublishes(t *testing.T) {
	f := newHandlerFixture()
	sourceID := uuid.New().String()
	f.sources.sources[sourceID] = domain.NewSourceConfig(sourceID, "rss", "Feed", domain.ConfigMap{"url": "https://example.com/feed"})

	rec := f.scheduleJob(t, sourceID)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp dto.JobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.JobStatusPending, resp.Status)
	assert.Equal(t, sourceID, resp.SourceID)

	require.Len(t, f.publisher.published, 1)
	var msg struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(f.publisher.published[0], &msg))
	assert.Equal(t, resp.JobID, msg.JobID)
	assert.Contains(t, f.jobs.jobs, resp.JobID)
}

func TestScheduleJob_InactiveSourceConflicts(t *testing.T) {
	f := newHandlerFixture()
	sourceID := uuid.New().String()
	src := domain.NewSourceConfig(sourceID, "rss", "Feed", domain.ConfigMap{})
	src.Deactivate()
	f.sources.sources[sourceID] = src

	rec := f.scheduleJob(t, sourceID)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.jobs.jobs)
}

func TestScheduleJob_UnhealthySourceConflicts(t *testing.T) {
	f := newHandlerFixture()
	sourceID := uuid.New().String()
	src := domain.NewSourceConfig(sourceID, "rss", "Feed", domain.ConfigMap{})
	for i := 0; i < domain.UnhealthyConsecutiveFailures; i++ {
		src.RecordFailure()
	}
	f.sources.sources[sourceID] = src

	rec := f.scheduleJob(t, sourceID)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.jobs.jobs)
}

func TestScheduleJob_UnknownSource(t *testing.T) {
	f := newHandlerFixture()

	rec := f.scheduleJob(t, uuid.New().String())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleJob_RejectsInvalidSourceID(t *testing.T) {
	f := newHandlerFixture()

	rec := f.scheduleJob(t, "not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobCursor_RoundTrip(t *testing.T) {
	cursor := &storage.JobCursor{
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 123456789, time.UTC),
		JobID:     "job-42",
	}

	decoded, err := DecodeJobCursor(EncodeJobCursor(cursor))

	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(cursor.CreatedAt))
	assert.Equal(t, cursor.JobID, decoded.JobID)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	_, err := DecodeJobCursor("%%%not-base64%%%")
	assert.Error(t, err)

	decoded, err := DecodeJobCursor("")
	assert.NoError(t, err)
	assert.Nil(t, decoded)
}
