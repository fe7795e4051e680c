package reducer

import (
	"context"
	"fmt"
	"image"
	"math"

	"image-size-reducer/internal/logger"

	"github.com/sirupsen/logrus"
)

// ScaleImage down-scales the source at increasing scaling levels,
// ScalingStep apart and capped by ScalingCeiling, encoding every scaled
// image at the fixed compressionLevel, until the encoded size fits the
// budget. The width at level l is max(1, round((1-l)*width)); the height
// follows the aspect ratio and is read back from the scaled image.
//
// A source already within budget is copied verbatim and no probe is run.
func (r *Reducer) ScaleImage(ctx context.Context, req Request, compressionLevel float64) Outcome {
	return r.record(req, "scale", r.scaleImage(ctx, req, compressionLevel))
}

func (r *Reducer) scaleImage(ctx context.Context, req Request, compressionLevel float64) (out Outcome) {
	if err := req.validateCommon(); err != nil {
		return failure(StageNone, nil, err)
	}
	if err := req.validateScaling(); err != nil {
		return failure(StageNone, nil, err)
	}
	if !inClosedUnit(compressionLevel) {
		return failure(StageNone, nil,
			fmt.Errorf("%w: compression level must be in [0, 1], got %v", ErrInvalidRequest, compressionLevel))
	}

	copied, size, done := r.copyIfWithinBudget(req)
	if done {
		return copied
	}

	src, err := r.load(req.Source, size)
	if err != nil {
		return failure(StageScaling, nil, err)
	}

	bounds := src.img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return failure(StageScaling, nil, fmt.Errorf("%w: image has zero dimension %dx%d", ErrDecode, width, height))
	}

	scratch, err := r.createScratch()
	if err != nil {
		return failure(StageScaling, nil, err)
	}
	defer func() {
		out = r.removeScratch(scratch, out)
	}()

	entry := logger.WithFileOperation(r.log, req.Source, "scale").WithFields(logrus.Fields{
		"format": src.format.String(),
		"scale":  src.format.Scale().String(),
	})
	steps := stepper{ceiling: req.Options.ScalingCeiling, step: req.Options.ScalingStep}
	intensity := src.format.Intensity(compressionLevel)

	acc := r.walk(ctx, entry, req.Budget, steps, func(level float64) (Probe, image.Image, error) {
		scaledWidth := scaledDimension(level, width)
		scaled, err := r.codec.Scale(src.img, scaledWidth)
		if err != nil {
			return Probe{}, nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		size, err := r.encodeAndMeasure(scratch, scaled, src.format, intensity)
		if err != nil {
			return Probe{}, nil, err
		}
		return Probe{
			Level:     level,
			Intensity: intensity,
			Size:      size,
			Width:     scaledWidth,
			Height:    scaled.Bounds().Dy(),
		}, scaled, nil
	})

	return r.conclude(req, StageScaling, src, acc)
}

// scaledDimension returns max(1, round((1-level)*dim)).
func scaledDimension(level float64, dim int) int {
	return max(1, int(math.Round((1-level)*float64(dim))))
}
