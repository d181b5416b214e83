// Package planner computes output dimensions and decode sample sizes for
// aspect-ratio preserving resizes. It performs no I/O and holds no state.
package planner

import (
	"fmt"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
)

// ResizePlan is computed once per request and discarded after use.
type ResizePlan struct {
	OutputWidth  int
	OutputHeight int
	SampleSize   int
}

// Plan derives the output size for a request of reqW x reqH against src and
// the sample size the decoder may apply. A zero request axis is unconstrained.
// Axes that floor to zero on extremely thin sources are raised to one pixel.
func Plan(src models.Dimensions, reqW, reqH int) (ResizePlan, error) {
	outW, outH, err := PlanDimensions(src.Width, src.Height, reqW, reqH)
	if err != nil {
		return ResizePlan{}, err
	}

	outW = max(1, outW)
	outH = max(1, outH)

	return ResizePlan{
		OutputWidth:  outW,
		OutputHeight: outH,
		SampleSize:   PlanSampleSize(src.Width, src.Height, outW, outH),
	}, nil
}

// PlanDimensions fits the source inside the requested box while preserving
// its aspect ratio. It never stretches, crops or letterboxes.
func PlanDimensions(srcW, srcH, reqW, reqH int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, models.Errorf(models.KindInvalidSourceDimensions, "plan",
			"source dimensions %dx%d", srcW, srcH)
	}

	switch {
	case reqW <= 0 && reqH <= 0:
		return srcW, srcH, nil
	case reqH <= 0:
		return reqW, scale(reqW, srcH, srcW), nil
	case reqW <= 0:
		return scale(reqH, srcW, srcH), reqH, nil
	}

	requestedRatio := float64(reqW) / float64(reqH)
	sourceRatio := float64(srcW) / float64(srcH)

	switch {
	case sourceRatio > requestedRatio:
		return reqW, scale(reqW, srcH, srcW), nil
	case sourceRatio < requestedRatio:
		return scale(reqH, srcW, srcH), reqH, nil
	default:
		return reqW, reqH, nil
	}
}

// PlanSampleSize returns the largest integer downsample factor that still
// leaves the decoded image at least as large as the output in the binding
// axis. The result is never below 1.
func PlanSampleSize(srcW, srcH, outW, outH int) int {
	if srcW <= 0 || srcH <= 0 || outW <= 0 || outH <= 0 {
		return 1
	}

	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(outW) / float64(outH)

	var sampleSize int
	if srcAspect > dstAspect {
		sampleSize = srcW / outW
	} else {
		sampleSize = srcH / outH
	}

	return max(1, sampleSize)
}

// scale returns floor(a*b/c) without intermediate overflow.
func scale(a, b, c int) int {
	return int(int64(a) * int64(b) / int64(c))
}

func (p ResizePlan) String() string {
	return fmt.Sprintf("%dx%d@1/%d", p.OutputWidth, p.OutputHeight, p.SampleSize)
}
