package reducer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"image-size-reducer/internal/format"
	"image-size-reducer/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const scratchPattern = "image-reducer-*"

// source is the decoded input of one search, owned by that search alone.
type source struct {
	size   int64
	format format.Format
	img    image.Image
}

// stepper yields the levels n*step for n = 1, 2, ..., capped by the ceiling and by 1.
type stepper struct {
	ceiling float64
	step    float64
}

func (s stepper) level(n int) float64 {
	return min(float64(n)*s.step, s.ceiling, 1)
}

func (s stepper) exhausted(level float64) bool {
	return level >= s.ceiling || level >= 1
}

// probeFunc encodes at level into the scratch file and measures it. The
// returned image is the one that was encoded.
type probeFunc func(level float64) (Probe, image.Image, error)

// accumulator carries the last measured probe through the walk.
type accumulator struct {
	last *Probe
	img  image.Image
	err  error // cause of an early break, nil when the walk ran to its end
}

// walk probes level after level until a probe fits the budget, the bounds
// are exhausted or a probe fails. It always probes at least once unless ctx
// is already done.
func (r *Reducer) walk(ctx context.Context, entry *logrus.Entry, budget int64, s stepper, probe probeFunc) accumulator {
	var acc accumulator
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			acc.err = err
			return acc
		}

		level := s.level(n)
		p, img, err := probe(level)
		if err != nil {
			r.stats.IncrementProbeFailures()
			entry.WithField("level", level).Debugf("Probe failed: %v", err)
			acc.err = err
			return acc
		}

		r.stats.IncrementProbes()
		acc.last, acc.img = &p, img
		entry.WithFields(logrus.Fields{
			"level":     p.Level,
			"intensity": p.Intensity,
			"size":      p.Size,
		}).Debug("Probe measured")

		if p.Size <= budget || s.exhausted(level) {
			return acc
		}
	}
}

// copyIfWithinBudget copies the source verbatim when it already fits the
// budget. It reports done=false when probing is needed; size is -1 when the
// source could not be stat'ed, which is left for detection to report.
func (r *Reducer) copyIfWithinBudget(req Request) (out Outcome, size int64, done bool) {
	info, err := r.fs.Stat(req.Source)
	if err != nil {
		return Outcome{}, -1, false
	}
	if info.Size() > req.Budget {
		return Outcome{}, info.Size(), false
	}

	data, err := afero.ReadFile(r.fs, req.Source)
	if err != nil {
		return failure(StageCopy, nil, fmt.Errorf("%w: read source: %w", ErrIO, err)), info.Size(), true
	}
	if err := afero.WriteFile(r.fs, req.Target, data, 0644); err != nil {
		return failure(StageCopy, nil, fmt.Errorf("%w: write target: %w", ErrIO, err)), info.Size(), true
	}

	r.stats.AddReduction(info.Size(), info.Size())
	return Outcome{Success: true, Stage: StageCopy}, info.Size(), true
}

// load detects the declared format of the source and decodes it.
func (r *Reducer) load(path string, size int64) (*source, error) {
	detected, err := format.Detect(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !detected.Format.IsSupported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected.MIME)
	}

	file, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer file.Close()

	img, err := r.codec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &source{size: size, format: detected.Format, img: img}, nil
}

// createScratch creates an empty, uniquely named scratch file and returns its path.
func (r *Reducer) createScratch() (string, error) {
	file, err := afero.TempFile(r.fs, r.scratchDir, scratchPattern)
	if err != nil {
		return "", fmt.Errorf("%w: create scratch file: %w", ErrIO, err)
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		_ = r.fs.Remove(name)
		return "", fmt.Errorf("%w: close scratch file: %w", ErrIO, err)
	}
	return name, nil
}

// removeScratch deletes the scratch file. A failed delete turns a success
// into an io failure marked with ErrScratchCleanup; the target stays written.
// On an existing failure it is only logged.
func (r *Reducer) removeScratch(path string, out Outcome) Outcome {
	err := r.fs.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return out
	}
	logger.WithFile(r.log, path).Warnf("Could not remove scratch file: %v", err)
	if !out.Success {
		return out
	}
	return failure(out.Stage, out.Probe, fmt.Errorf("%w: %w: %w", ErrIO, ErrScratchCleanup, err))
}

// encodeTo encodes img into path, truncating any previous content.
func (r *Reducer) encodeTo(path string, img image.Image, f format.Format, intensity int) error {
	file, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}
	if err := r.codec.Encode(file, img, f, intensity); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, path, err)
	}
	return nil
}

// measure returns the size in bytes of the file at path.
func (r *Reducer) measure(path string) (int64, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	return info.Size(), nil
}

// encodeAndMeasure is the body of every probe: encode into the scratch file, then stat it.
func (r *Reducer) encodeAndMeasure(scratch string, img image.Image, f format.Format, intensity int) (int64, error) {
	if err := r.encodeTo(scratch, img, f, intensity); err != nil {
		return 0, err
	}
	return r.measure(scratch)
}

// conclude writes the target from the last measured probe when it fits the budget.
func (r *Reducer) conclude(req Request, stage Stage, src *source, acc accumulator) Outcome {
	if acc.last == nil || acc.last.Size > req.Budget {
		err := acc.err
		if err == nil && acc.last != nil {
			err = fmt.Errorf("%w: last size %d > budget %d at level %v",
				ErrBudgetNotMet, acc.last.Size, req.Budget, acc.last.Level)
		} else if err == nil {
			err = fmt.Errorf("%w: no probe completed", ErrBudgetNotMet)
		}
		return failure(stage, acc.last, err)
	}

	if err := r.encodeTo(req.Target, acc.img, src.format, acc.last.Intensity); err != nil {
		return failure(stage, acc.last, err)
	}

	r.stats.AddReduction(src.size, acc.last.Size)
	return Outcome{Success: true, Stage: stage, Probe: acc.last}
}
