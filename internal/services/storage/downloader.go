package storage

import (
	"context"
	"fmt"
)

func (s *StorageService) Download(ctx context.Context, path string) ([]byte, error) {
	if !s.HasBucket() {
		return nil, ErrBucketNotConfigured
	}

	data, err := s.sbClient.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}
	return data, nil
}
