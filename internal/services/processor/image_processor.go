// Package processor is the codec boundary of the resize pipeline: a
// bounds-only probe, a bounded decode, an exact rescale and an encoder.
package processor

import (
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
)

const DefaultQuality = 85

type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Probe reads only the image header and returns its dimensions and the
// registered format name. No pixel buffer is allocated.
func (p *ImageProcessor) Probe(r io.Reader) (models.Dimensions, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return models.Dimensions{}, "", fmt.Errorf("failed to read image header: %w", err)
	}

	return models.Dimensions{Width: cfg.Width, Height: cfg.Height}, format, nil
}
