package worker

import (
	"context"
	"log/slog"
	"time"
)

// processJob runs one job through the executor under the configured timeout.
func (w *Worker) processJob(ctx context.Context, msg *jobMessage) error {
	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := w.executor.ExecuteJob(jobCtx, msg.JobID)
	elapsed := time.Since(start)

	if err != nil {
		return err
	}

	w.logger.Info("Job processed",
		slog.String("job_id", msg.JobID),
		slog.Duration("elapsed", elapsed),
	)

	return nil
}
