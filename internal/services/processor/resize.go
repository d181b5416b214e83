package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rescale resizes img to exactly width x height with bilinear interpolation.
func (p *ImageProcessor) Rescale(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return img
	}

	return imaging.Resize(img, max(1, width), max(1, height), imaging.Linear)
}
