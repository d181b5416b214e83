package storage

import (
	"time"

	"github.com/phambaophuc/image-resizer-bridge/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

type StorageService struct {
	sbClient    *storage_go.Client
	redisClient *redis.Client
	bucket      string
	jobTTL      time.Duration
}

// NewStorageService connects the job store and, when configured, the
// Supabase bucket. Bucket operations fail with ErrBucketNotConfigured
// otherwise.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.Supabase.Enabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jobTTL := cfg.Storage.JobTTL
	if jobTTL <= 0 {
		jobTTL = 24 * time.Hour
	}

	return &StorageService{
		sbClient:    sbClient,
		redisClient: redisClient,
		bucket:      cfg.Supabase.BUCKET,
		jobTTL:      jobTTL,
	}, nil
}

// HasBucket reports whether Supabase storage is available.
func (s *StorageService) HasBucket() bool {
	return s.sbClient != nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
