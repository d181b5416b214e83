// Package source turns the references passed to bridge actions into
// re-openable image sources.
package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/phambaophuc/image-resizer-bridge/pkg/utils"
)

const (
	schemeFile    = "file"
	schemeHTTP    = "http"
	schemeHTTPS   = "https"
	schemeStorage = "storage"
)

// Downloader fetches an object from a bucket by key.
type Downloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// Source can be opened any number of times; the resize pipeline reads it
// once for the header probe and once for the decode.
type Source struct {
	Ref  string
	Path string
	data []byte
}

func (s *Source) Open() (io.ReadCloser, error) {
	if s.Path != "" {
		return os.Open(s.Path)
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type Resolver struct {
	bucket          Downloader
	maxSize         int64
	downloadTimeout time.Duration
}

// NewResolver builds a resolver. bucket may be nil, in which case storage://
// references cannot be resolved.
func NewResolver(bucket Downloader, maxSize int64, downloadTimeout time.Duration) *Resolver {
	return &Resolver{
		bucket:          bucket,
		maxSize:         maxSize,
		downloadTimeout: downloadTimeout,
	}
}

// Resolve maps ref to a Source. dataType is "urlImage" (the default when
// empty) or "base64Image". Every failure is a SOURCE_NOT_FOUND error.
func (r *Resolver) Resolve(ctx context.Context, ref, dataType string) (*Source, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "empty source reference")
	}

	switch dataType {
	case "", models.ImageDataTypeURL:
		return r.resolveURL(ctx, ref)
	case models.ImageDataTypeBase64:
		return r.resolveBase64(ref)
	default:
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "unknown image data type %q", dataType)
	}
}

func (r *Resolver) resolveURL(ctx context.Context, ref string) (*Source, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return r.resolvePath(ref, ref)
	}

	switch strings.ToLower(u.Scheme) {
	case schemeFile:
		if u.Host != "" && u.Host != "localhost" {
			return nil, models.Errorf(models.KindSourceNotFound, "resolve", "remote file host %q", u.Host)
		}
		return r.resolvePath(ref, u.Path)
	case schemeHTTP, schemeHTTPS:
		return r.download(ctx, ref)
	case schemeStorage:
		return r.fetchObject(ctx, ref, strings.TrimPrefix(u.Host+u.Path, "/"))
	default:
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "unsupported scheme %q", u.Scheme)
	}
}

func (r *Resolver) resolvePath(ref, path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.NewError(models.KindSourceNotFound, "resolve", err)
	}
	if info.IsDir() {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "%s is a directory", path)
	}

	return &Source{Ref: ref, Path: path}, nil
}

func (r *Resolver) download(ctx context.Context, ref string) (*Source, error) {
	if r.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.downloadTimeout)
		defer cancel()
	}

	data, _, err := utils.DownloadImage(ctx, ref, r.maxSize)
	if err != nil {
		return nil, models.NewError(models.KindSourceNotFound, "resolve", err)
	}

	return &Source{Ref: ref, data: data}, nil
}

func (r *Resolver) fetchObject(ctx context.Context, ref, key string) (*Source, error) {
	if r.bucket == nil {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "no storage bucket configured")
	}
	if key == "" {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "empty storage key")
	}

	data, err := r.bucket.Download(ctx, key)
	if err != nil {
		return nil, models.NewError(models.KindSourceNotFound, "resolve", fmt.Errorf("failed to download %s: %w", key, err))
	}
	if int64(len(data)) > r.maxSize {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "object %s exceeds %d bytes", key, r.maxSize)
	}

	return &Source{Ref: ref, data: data}, nil
}

func (r *Resolver) resolveBase64(data string) (*Source, error) {
	payload := data
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, models.Errorf(models.KindSourceNotFound, "resolve", "malformed data url")
		}
		payload = payload[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, models.NewError(models.KindSourceNotFound, "resolve", fmt.Errorf("invalid base64 image data: %w", err))
	}
	if int64(len(decoded)) > r.maxSize {
		return nil, models.Errorf(models.KindSourceNotFound, "resolve", "image data exceeds %d bytes", r.maxSize)
	}

	return &Source{Ref: "base64", data: decoded}, nil
}
