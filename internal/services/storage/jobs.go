package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "img_job:"

var ErrJobNotFound = errors.New("job not found")

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// SaveJob overwrites the stored state of job and refreshes its expiry.
func (s *StorageService) SaveJob(ctx context.Context, job *models.ResizeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.redisClient.Set(ctx, jobKey(job.ID), data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.ResizeJob, error) {
	data, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job models.ResizeJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *StorageService) GetJobStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys": dbSize,
		"job_ttl": s.jobTTL.String(),
	}

	return stats, nil
}
