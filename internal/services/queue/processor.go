package queue

import (
	"context"
	"time"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"go.uber.org/zap"
)

// processJob runs job and records every status transition. Failures are
// stored on the job rather than returned; a failed resize is not redelivered.
func (q *QueueService) processJob(ctx context.Context, job *models.ResizeJob) {
	job.Status = models.StatusProcessing
	q.storeJob(ctx, job)

	result, err := q.runResize(ctx, job)
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		job.ErrorKind = models.KindOf(err)
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.String("error_kind", string(job.ErrorKind)),
			zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		job.Result = result
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.String("uri", result.URI))
	}

	q.storeJob(ctx, job)
}

// runResize turns a panic in the resizer into a DECODE_FAILURE so one bad
// image cannot take the consumer down.
func (q *QueueService) runResize(ctx context.Context, job *models.ResizeJob) (result *models.ResizeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Job panicked",
				zap.String("job_id", job.ID),
				zap.Any("panic", r))
			result = nil
			err = models.Errorf(models.KindDecodeFailure, "resize", "panic: %v", r)
		}
	}()

	return q.resizer.Resize(ctx, job.Request)
}

func (q *QueueService) storeJob(ctx context.Context, job *models.ResizeJob) {
	job.UpdatedAt = time.Now()
	if err := q.jobs.SaveJob(ctx, job); err != nil {
		q.logger.Warn("Failed to store job status",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
