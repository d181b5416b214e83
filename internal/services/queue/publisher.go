package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Enqueue records a pending job for req and publishes it.
func (q *QueueService) Enqueue(ctx context.Context, req models.ResizeRequest) (*models.ResizeJob, error) {
	now := time.Now()
	job := &models.ResizeJob{
		ID:        uuid.New().String(),
		Request:   req,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := q.jobs.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := q.PublishJob(ctx, job); err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now()
		if saveErr := q.jobs.SaveJob(ctx, job); saveErr != nil {
			q.logger.Warn("Failed to record publish failure",
				zap.String("job_id", job.ID),
				zap.Error(saveErr))
		}
		return nil, err
	}

	return job, nil
}

func (q *QueueService) PublishJob(ctx context.Context, job *models.ResizeJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    job.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue", zap.String("job_id", job.ID))
	return nil
}
