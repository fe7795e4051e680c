package reducer

import (
	"fmt"

	"image-size-reducer/internal/config"
)

// Options bounds the two searches. Every value is a ratio in the unit interval.
type Options struct {
	CompressionCeiling float64 // [0, 1]
	CompressionStep    float64 // (0, 1]
	ScalingCeiling     float64 // (0, 1]
	ScalingStep        float64 // (0, 1]
}

// DefaultOptions returns the bounds used when the caller has no preference.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Reduction)
}

// OptionsFromConfig extracts the search bounds of a reduction config.
func OptionsFromConfig(cfg config.ReductionConfig) Options {
	return Options{
		CompressionCeiling: cfg.CompressionCeiling,
		CompressionStep:    cfg.CompressionStep,
		ScalingCeiling:     cfg.ScalingCeiling,
		ScalingStep:        cfg.ScalingStep,
	}
}

// Request describes one reduction of Source into Target.
type Request struct {
	Source  string
	Target  string
	Budget  int64 // maximum acceptable size of Target in bytes, > 0
	Options Options
}

// NewRequest returns a Request with DefaultOptions.
func NewRequest(source, target string, budget int64) Request {
	return Request{
		Source:  source,
		Target:  target,
		Budget:  budget,
		Options: DefaultOptions(),
	}
}

// Validate checks the paths, the budget and all four bounds.
func (r Request) Validate() error {
	if err := r.validateCommon(); err != nil {
		return err
	}
	if err := r.validateCompression(); err != nil {
		return err
	}
	return r.validateScaling()
}

func (r Request) validateCommon() error {
	if r.Source == "" {
		return fmt.Errorf("%w: source path is required", ErrInvalidRequest)
	}
	if r.Target == "" {
		return fmt.Errorf("%w: target path is required", ErrInvalidRequest)
	}
	if r.Budget <= 0 {
		return fmt.Errorf("%w: budget must be > 0, got %d", ErrInvalidRequest, r.Budget)
	}
	return nil
}

func (r Request) validateCompression() error {
	o := r.Options
	if !inClosedUnit(o.CompressionCeiling) {
		return fmt.Errorf("%w: compression ceiling must be in [0, 1], got %v", ErrInvalidRequest, o.CompressionCeiling)
	}
	if !inHalfOpenUnit(o.CompressionStep) {
		return fmt.Errorf("%w: compression step must be in (0, 1], got %v", ErrInvalidRequest, o.CompressionStep)
	}
	return nil
}

func (r Request) validateScaling() error {
	o := r.Options
	if !inHalfOpenUnit(o.ScalingCeiling) {
		return fmt.Errorf("%w: scaling ceiling must be in (0, 1], got %v", ErrInvalidRequest, o.ScalingCeiling)
	}
	if !inHalfOpenUnit(o.ScalingStep) {
		return fmt.Errorf("%w: scaling step must be in (0, 1], got %v", ErrInvalidRequest, o.ScalingStep)
	}
	return nil
}

func inClosedUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func inHalfOpenUnit(v float64) bool {
	return v > 0 && v <= 1
}

// Stage names the step that produced an Outcome.
type Stage int

const (
	StageNone Stage = iota
	StageCopy
	StageCompression
	StageScaling
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	switch s {
	case StageCopy:
		return "copy"
	case StageCompression:
		return "compression"
	case StageScaling:
		return "scaling"
	default:
		return "none"
	}
}

// Probe is one measured encode at a given level.
// Width and Height are only set by the scaling search.
type Probe struct {
	Level     float64
	Intensity int
	Size      int64
	Width     int
	Height    int
}

// Outcome is the result of a search or of Reduce.
//
// Probe is nil when no probe was measured, which includes the verbatim copy
// of a source that was already within budget. On failure Probe holds the last
// measured probe, if any, and Err the cause.
type Outcome struct {
	Success bool
	Stage   Stage
	Probe   *Probe
	Err     error
}

// Copied reports whether the target is a verbatim copy of the source.
func (o Outcome) Copied() bool {
	return o.Success && o.Stage == StageCopy
}
