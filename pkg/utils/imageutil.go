package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadImage fetches imageURL, reading at most maxSize bytes, and checks
// that the body sniffs as an image.
func DownloadImage(ctx context.Context, imageURL string, maxSize int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}

	if int64(len(imageData)) > maxSize {
		return nil, "", fmt.Errorf("image exceeds maximum size of %d bytes", maxSize)
	}

	contentType := http.DetectContentType(imageData)
	if !IsValidImageType(contentType) {
		return nil, "", fmt.Errorf("invalid content type: %s", contentType)
	}

	return imageData, contentType, nil
}

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// GenerateFilename returns the default name of a resized image: the current
// unix time in milliseconds with the format's extension.
func GenerateFilename(now time.Time, format string) string {
	if format == "" {
		format = "jpg"
	}
	return fmt.Sprintf("%d.%s", now.UnixMilli(), format)
}

func GenerateStorageKey(filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	return fmt.Sprintf("processed/%s_%d_%s%s", name, timestamp, uuid, ext)
}
