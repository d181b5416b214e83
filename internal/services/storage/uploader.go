package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-resizer-bridge/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

var ErrBucketNotConfigured = errors.New("storage bucket is not configured")

// Upload stores data under a fresh key and returns the key and its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename, contentType string) (string, string, error) {
	if !s.HasBucket() {
		return "", "", ErrBucketNotConfigured
	}

	key := utils.GenerateStorageKey(filename)

	opts := storage_go.FileOptions{}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), opts)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return key, publicURL.SignedURL, nil
}

// Delete removes an uploaded object from Supabase Storage
func (s *StorageService) Delete(ctx context.Context, path string) error {
	if !s.HasBucket() {
		return ErrBucketNotConfigured
	}

	_, err := s.sbClient.RemoveFile(s.bucket, []string{path})
	return err
}
