package reducer

import (
	"context"
	"image"

	"image-size-reducer/internal/logger"

	"github.com/sirupsen/logrus"
)

// CompressImage re-encodes the full-resolution source at increasing
// compression levels, CompressionStep apart and capped by
// CompressionCeiling, until the encoded size fits the budget.
//
// A source already within budget is copied verbatim and no probe is run.
// On success the target holds the encoding of the first fitting level. On
// failure the outcome carries the last measured probe, if any.
func (r *Reducer) CompressImage(ctx context.Context, req Request) Outcome {
	return r.record(req, "compress", r.compressImage(ctx, req))
}

func (r *Reducer) compressImage(ctx context.Context, req Request) (out Outcome) {
	if err := req.validateCommon(); err != nil {
		return failure(StageNone, nil, err)
	}
	if err := req.validateCompression(); err != nil {
		return failure(StageNone, nil, err)
	}

	copied, size, done := r.copyIfWithinBudget(req)
	if done {
		return copied
	}

	src, err := r.load(req.Source, size)
	if err != nil {
		return failure(StageCompression, nil, err)
	}

	scratch, err := r.createScratch()
	if err != nil {
		return failure(StageCompression, nil, err)
	}
	defer func() {
		out = r.removeScratch(scratch, out)
	}()

	entry := logger.WithFileOperation(r.log, req.Source, "compress").WithFields(logrus.Fields{
		"format": src.format.String(),
		"scale":  src.format.Scale().String(),
	})
	steps := stepper{ceiling: req.Options.CompressionCeiling, step: req.Options.CompressionStep}

	acc := r.walk(ctx, entry, req.Budget, steps, func(level float64) (Probe, image.Image, error) {
		intensity := src.format.Intensity(level)
		size, err := r.encodeAndMeasure(scratch, src.img, src.format, intensity)
		if err != nil {
			return Probe{}, nil, err
		}
		return Probe{Level: level, Intensity: intensity, Size: size}, src.img, nil
	})

	return r.conclude(req, StageCompression, src, acc)
}
