package processor

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	FormatJPG  = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// NormalizeFormat maps a caller supplied format tag to one of the supported
// output formats. An empty tag selects jpg.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "jpg", "jpeg":
		return FormatJPG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func Extension(format string) string {
	return "." + format
}

func ContentType(format string) string {
	switch format {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Encode writes img to w. Quality applies to jpg and webp and is ignored for png.
func (p *ImageProcessor) Encode(w io.Writer, img image.Image, format string, quality int) error {
	quality = min(100, max(0, quality))

	switch format {
	case FormatJPG, "jpeg":
		// image/jpeg treats quality below 1 as 1.
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
