package processor

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// DecodeBounded decodes r and reduces it by sampleSize per axis, never below
// one pixel. A sampleSize of 1 or less returns the full-resolution image.
func (p *ImageProcessor) DecodeBounded(r io.Reader, sampleSize int) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if sampleSize <= 1 {
		return img, nil
	}

	bounds := img.Bounds()
	width := max(1, bounds.Dx()/sampleSize)
	height := max(1, bounds.Dy()/sampleSize)

	// Box averages every source pixel of a cell, like a decoder's subsampling.
	return imaging.Resize(img, width, height, imaging.Box), nil
}
