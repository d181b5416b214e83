// Package bridge runs the resize and size actions: argument validation,
// source resolution, planning, bounded decoding, rescaling and writing the
// result.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phambaophuc/image-resizer-bridge/internal/config"
	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/planner"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/processor"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/source"
	"github.com/phambaophuc/image-resizer-bridge/pkg/utils"
	"go.uber.org/zap"
)

// Publisher uploads finished images to a bucket. Upload returns the object
// key and its public URL.
type Publisher interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, string, error)
	Delete(ctx context.Context, key string) error
}

type Orchestrator struct {
	cfg       config.StorageConfig
	processor *processor.ImageProcessor
	resolver  *source.Resolver
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator wires the resize pipeline. publisher may be nil, in which
// case publish requests are ignored.
func NewOrchestrator(
	cfg config.StorageConfig,
	proc *processor.ImageProcessor,
	resolver *source.Resolver,
	publisher Publisher,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		processor: proc,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Resize writes a copy of req.URI scaled to fit the requested box and
// returns where it was written. Every error is a *models.Error. With
// req.Publish the upload happens before the local write: a failed upload
// leaves the destination untouched, and a failed local write removes the
// uploaded object again.
func (o *Orchestrator) Resize(ctx context.Context, req models.ResizeRequest) (*models.ResizeResult, error) {
	start := time.Now()

	format, err := ValidateResize(req)
	if err != nil {
		return nil, err
	}

	src, err := o.resolver.Resolve(ctx, req.URI, models.ImageDataTypeURL)
	if err != nil {
		return nil, err
	}

	dims, err := o.probe(src)
	if err != nil {
		return nil, err
	}

	plan, err := planner.Plan(dims, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	decoded, err := o.decode(src, plan.SampleSize)
	if err != nil {
		return nil, err
	}
	scaled := o.processor.Rescale(decoded, plan.OutputWidth, plan.OutputHeight)

	dir := o.destinationDir(req.FolderName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, models.NewError(models.KindDestinationUnwritable, "resize", fmt.Errorf("failed to create %s: %w", dir, err))
	}

	name := req.FileName
	if name == "" {
		name = utils.GenerateFilename(o.now(), format)
	}
	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return nil, models.NewError(models.KindDestinationUnwritable, "resize", err)
	}

	var buf bytes.Buffer
	if err := o.processor.Encode(&buf, scaled, format, req.Quality); err != nil {
		return nil, models.NewError(models.KindEncodeFailure, "resize", err)
	}
	size := int64(buf.Len())
	encoded := buf.Bytes()

	result := &models.ResizeResult{
		URI:        fileURI(path),
		Path:       path,
		Width:      plan.OutputWidth,
		Height:     plan.OutputHeight,
		SampleSize: plan.SampleSize,
		Format:     format,
		FileSize:   size,
	}

	var objectKey string
	if req.Publish {
		if objectKey, err = o.publish(ctx, result, encoded); err != nil {
			return nil, err
		}
	}

	if err := replaceFile(path, bytes.NewReader(encoded)); err != nil {
		if objectKey != "" {
			o.unpublish(ctx, objectKey)
		}
		return nil, models.NewError(models.KindDestinationUnwritable, "resize", fmt.Errorf("failed to write %s: %w", path, err))
	}

	o.logger.Info("Image resized",
		zap.String("source", req.URI),
		zap.String("path", path),
		zap.Int("source_width", dims.Width),
		zap.Int("source_height", dims.Height),
		zap.String("plan", plan.String()),
		zap.Int64("file_size", size),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// ProbeSize reports the intrinsic dimensions of req.Data without decoding
// pixels or writing anything.
func (o *Orchestrator) ProbeSize(ctx context.Context, req models.SizeRequest) (*models.SizeResult, error) {
	if strings.TrimSpace(req.Data) == "" {
		return nil, models.Errorf(models.KindInvalidArguments, "size", "data is required")
	}
	if _, err := processor.NormalizeFormat(req.Format); err != nil {
		return nil, models.NewError(models.KindInvalidArguments, "size", err)
	}

	src, err := o.resolver.Resolve(ctx, req.Data, req.ImageDataType)
	if err != nil {
		return nil, err
	}

	dims, err := o.probe(src)
	if err != nil {
		return nil, err
	}

	return &models.SizeResult{Width: dims.Width, Height: dims.Height}, nil
}

func (o *Orchestrator) probe(src *source.Source) (models.Dimensions, error) {
	rc, err := src.Open()
	if err != nil {
		return models.Dimensions{}, models.NewError(models.KindSourceNotFound, "probe", err)
	}
	defer rc.Close()

	dims, _, err := o.processor.Probe(rc)
	if err != nil {
		return models.Dimensions{}, models.NewError(models.KindDecodeFailure, "probe", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return models.Dimensions{}, models.Errorf(models.KindInvalidSourceDimensions, "probe", "source reports %dx%d", dims.Width, dims.Height)
	}

	return dims, nil
}

func (o *Orchestrator) decode(src *source.Source, sampleSize int) (image.Image, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, models.NewError(models.KindSourceNotFound, "decode", err)
	}
	defer rc.Close()

	img, err := o.processor.DecodeBounded(rc, sampleSize)
	if err != nil {
		return nil, models.NewError(models.KindDecodeFailure, "decode", err)
	}
	return img, nil
}

func (o *Orchestrator) publish(ctx context.Context, result *models.ResizeResult, data []byte) (string, error) {
	if o.publisher == nil {
		o.logger.Warn("Publish requested without a storage bucket", zap.String("path", result.Path))
		return "", nil
	}

	key, publicURL, err := o.publisher.Upload(ctx, data, filepath.Base(result.Path), processor.ContentType(result.Format))
	if err != nil {
		return "", models.NewError(models.KindDestinationUnwritable, "publish", err)
	}
	result.PublicURL = publicURL
	return key, nil
}

func (o *Orchestrator) unpublish(ctx context.Context, key string) {
	if err := o.publisher.Delete(ctx, key); err != nil {
		o.logger.Warn("Failed to remove published object",
			zap.String("key", key),
			zap.Error(err))
	}
}

// ValidateResize checks req without touching the source and returns the
// normalised output format.
func ValidateResize(req models.ResizeRequest) (string, error) {
	if strings.TrimSpace(req.URI) == "" {
		return "", models.Errorf(models.KindInvalidArguments, "resize", "uri is required")
	}
	if req.Quality < 0 || req.Quality > 100 {
		return "", models.Errorf(models.KindInvalidArguments, "resize", "quality must be between 0 and 100, got %d", req.Quality)
	}
	if req.Width < 0 || req.Height < 0 {
		return "", models.Errorf(models.KindInvalidArguments, "resize", "width and height must not be negative, got %dx%d", req.Width, req.Height)
	}
	if req.FileName != "" && !validFileName(req.FileName) {
		return "", models.Errorf(models.KindInvalidArguments, "resize", "fileName %q must be a bare file name", req.FileName)
	}

	format, err := processor.NormalizeFormat(req.Format)
	if err != nil {
		return "", models.NewError(models.KindInvalidArguments, "resize", err)
	}
	return format, nil
}
