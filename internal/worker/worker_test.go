package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/content-ingest/internal/domain"
)

func TestShouldRequeueJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		requeue bool
	}{
		{
			name:    "missing job is not requeued",
			err:     fmt.Errorf("failed to load job: %w", domain.ErrJobNotFound),
			requeue: false,
		},
		{
			name:    "concurrency conflict is not requeued",
			err:     fmt.Errorf("failed to save job: %w", domain.ErrConcurrencyConflict),
			requeue: false,
		},
		{
			name:    "invalid transition is not requeued",
			err:     fmt.Errorf("cannot start: %w", domain.ErrInvalidStateTransition),
			requeue: false,
		},
		{
			name:    "database outage is requeued",
			err:     errors.New("failed to load job: connection refused"),
			requeue: true,
		},
		{
			name:    "context deadline is requeued",
			err:     context.DeadlineExceeded,
			requeue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.requeue, shouldRequeueJob(tt.err))
		})
	}
}

type recordingExecutor struct {
	jobIDs   []string
	deadline bool
	err      error
}

func (r *recordingExecutor) ExecuteJob(ctx context.Context, jobID string) error {
	r.jobIDs = append(r.jobIDs, jobID)
	_, r.deadline = ctx.Deadline()
	return r.err
}

func TestProcessJob_AppliesTimeoutAndDelegates(t *testing.T) {
	exec := &recordingExecutor{}
	w := NewWorker(&Config{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Executor:   exec,
		WorkerID:   "worker-test",
		JobTimeout: time.Second,
	})

	err := w.processJob(context.Background(), &jobMessage{JobID: "job-1", DeliveryTag: 7})

	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, exec.jobIDs)
	assert.True(t, exec.deadline, "executor runs under a deadline")
}

func TestProcessJob_PropagatesExecutorError(t *testing.T) {
	exec := &recordingExecutor{err: fmt.Errorf("load: %w", domain.ErrJobNotFound)}
	w := NewWorker(&Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Executor: exec,
		WorkerID: "worker-test",
	})

	err := w.processJob(context.Background(), &jobMessage{JobID: "job-2"})

	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.False(t, exec.deadline, "no timeout configured means no deadline")
}
