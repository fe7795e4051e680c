// Package reducer shrinks an image file below a byte budget by walking the
// compression level upward in fixed steps and, when that is not enough,
// walking a down-scaling level at a fixed compression.
package reducer

import (
	"context"
	"errors"
	"fmt"

	"image-size-reducer/internal/codec"
	"image-size-reducer/internal/config"
	"image-size-reducer/internal/logger"
	"image-size-reducer/internal/statistics"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Reducer runs size-reduction searches. A Reducer holds no per-invocation
// state, so concurrent calls on distinct targets are safe.
type Reducer struct {
	codec      codec.Codec
	fs         afero.Fs
	log        *logrus.Logger
	stats      *statistics.Statistics
	scratchDir string
}

// New returns a Reducer. A nil logger discards output and nil stats are replaced by a fresh collector.
func New(c codec.Codec, fs afero.Fs, log *logrus.Logger, stats *statistics.Statistics) *Reducer {
	if log == nil {
		log = logger.Discard()
	}
	if stats == nil {
		stats = statistics.NewStatistics()
	}
	return &Reducer{
		codec: c,
		fs:    fs,
		log:   log,
		stats: stats,
	}
}

// NewDefault returns a Reducer on the OS filesystem with the imaging codec and no logging.
func NewDefault() *Reducer {
	return New(codec.NewImagingCodec(""), afero.NewOsFs(), nil, nil)
}

// NewFromConfig loads the configuration at configPath (or the default search
// paths when empty) and builds a Reducer with its logger and codec settings.
func NewFromConfig(configPath string) (*Reducer, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(logger.LoggerConfig(cfg.Logging))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	r := New(codec.NewImagingCodec(cfg.Reduction.ResampleFilter), afero.NewOsFs(), log, statistics.NewStatistics())
	r.SetScratchDir(cfg.Reduction.ScratchDir)
	return r, cfg, nil
}

// SetScratchDir sets the directory of scratch files. Empty means the OS temp dir.
func (r *Reducer) SetScratchDir(dir string) {
	r.scratchDir = dir
}

// Stats returns the statistics collector shared by all invocations.
func (r *Reducer) Stats() *statistics.Statistics {
	return r.stats
}

// Reduce runs the compression search and, if it fails, the scaling search
// with the compression ceiling as fixed compression level. The scaling
// outcome is returned as is, whether or not it succeeded. A compression
// failure caused only by scratch cleanup is returned without falling back,
// since the target is already written.
func (r *Reducer) Reduce(ctx context.Context, req Request) Outcome {
	if err := req.Validate(); err != nil {
		return r.record(req, "reduce", failure(StageNone, nil, err))
	}

	compressed := r.CompressImage(ctx, req)
	if compressed.Success || errors.Is(compressed.Err, ErrScratchCleanup) {
		return compressed
	}

	r.stats.IncrementFallbacks()
	logger.WithFileOperation(r.log, req.Source, "reduce").WithFields(logrus.Fields{
		"reason":          errorKind(compressed.Err),
		"fixed_level":     req.Options.CompressionCeiling,
		"scaling_ceiling": req.Options.ScalingCeiling,
		"scaling_step":    req.Options.ScalingStep,
	}).Info("Compression alone did not meet the budget, falling back to scaling")

	return r.ScaleImage(ctx, req, req.Options.CompressionCeiling)
}

// ReduceFile reduces source into target with the default bounds on the OS filesystem.
func ReduceFile(ctx context.Context, source, target string, budget int64) Outcome {
	return NewDefault().Reduce(ctx, NewRequest(source, target, budget))
}

// record updates statistics and logs the final state of one search.
func (r *Reducer) record(req Request, operation string, out Outcome) Outcome {
	r.stats.IncrementInvocations()
	entry := logger.WithFileOperation(r.log, req.Source, operation).WithFields(logrus.Fields{
		"target": req.Target,
		"budget": req.Budget,
		"stage":  out.Stage.String(),
	})
	if out.Probe != nil {
		entry = entry.WithFields(logrus.Fields{
			"level":     out.Probe.Level,
			"intensity": out.Probe.Intensity,
			"size":      out.Probe.Size,
		})
	}

	if !out.Success {
		kind := errorKind(out.Err)
		r.stats.AddFailure(req.Source, operation, kind, out.Err.Error())
		entry.WithField("kind", kind).Warnf("Reduction failed: %v", out.Err)
		return out
	}

	switch out.Stage {
	case StageCopy:
		r.stats.IncrementCopies()
		entry.Info("Source already within budget, copied verbatim")
	case StageCompression:
		r.stats.IncrementCompressionSuccesses()
		entry.Info("Image compressed within budget")
	case StageScaling:
		r.stats.IncrementScalingSuccesses()
		entry.WithFields(logrus.Fields{
			"width":  out.Probe.Width,
			"height": out.Probe.Height,
		}).Info("Image scaled within budget")
	}
	return out
}

func failure(stage Stage, probe *Probe, err error) Outcome {
	return Outcome{Success: false, Stage: stage, Probe: probe, Err: err}
}
