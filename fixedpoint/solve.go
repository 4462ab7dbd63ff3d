package fixedpoint

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/sky-flux/ampe"
)

const (
	defaultMaxIterations = 10000
	defaultStepThreshold = 1e-10
)

// Settings configures Solve.
// Zero values are replaced with defaults, except Accelerator, which is
// validated as given when Mode is not Plain.
type Settings struct {
	MaxIterations int         `json:"max_iterations"` // default 10000
	Mode          Mode        `json:"mode"`           // default Plain
	Accelerator   ampe.Config `json:"accelerator"`

	// Converger decides when to stop. Default StepThreshold(1e-10).
	Converger Converger `json:"-"`

	// Objective, if non-nil, is evaluated at every reported point to fill
	// Location.F and Location.Gradient.
	Objective Objective `json:"-"`

	// Logger receives progress every LogEvery iterations and a summary at
	// the end. Nil discards everything.
	Logger   logrus.FieldLogger `json:"-"`
	LogEvery int                `json:"log_every"`
}

// Stats counts the work done by Solve.
type Stats struct {
	Iterations     int
	MapEvaluations int
	Runtime        time.Duration
}

// Result is the outcome of Solve.
type Result struct {
	Location
	Stats  Stats
	Status Status
}

// Solve iterates g from x0 until s.Converger holds, the iteration limit is
// hit, an iterate stops being finite, or ctx is done.
//
// The result is always populated, also on error. When Solve is canceled or
// runs out of iterations and an Objective is set, the result holds the
// location with the lowest F seen so far; otherwise it holds the last
// reported location. ErrMaxIterations, ErrNotFinite and the context error
// are returned alongside the corresponding Status.
func Solve(ctx context.Context, g Map, x0 []float64, s Settings) (Result, error) {
	start := time.Now()
	if len(x0) == 0 {
		return Result{}, ErrEmptyStart
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = defaultMaxIterations
	}
	if s.Converger == nil {
		s.Converger = StepThreshold(defaultStepThreshold)
	}
	if s.Objective == nil && needsObjective(s.Converger) {
		return Result{}, ErrMissingObjective
	}
	logger := s.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("mode", s.Mode.String())

	step, err := newStepper(s.Mode, s.Accelerator)
	if err != nil {
		return Result{}, err
	}

	dim := len(x0)
	x := append([]float64(nil), x0...)
	gx := make([]float64, dim)
	res := Result{Location: Location{X: append([]float64(nil), x0...), F: math.NaN()}}
	var best *Location

	finish := func(status Status, err error) (Result, error) {
		if best != nil && (status == Canceled || status == IterationLimit) {
			res.Location = *best
		}
		res.Status = status
		res.Stats.Runtime = time.Since(start)
		logger.WithFields(logrus.Fields{
			"status":     status.String(),
			"iterations": res.Stats.Iterations,
			"f":          res.F,
			"step_norm":  res.StepNorm,
		}).Debug("fixed-point iteration finished")
		return res, err
	}

	for iter := 1; iter <= s.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return finish(Canceled, err)
		}

		g(gx, x)
		res.Stats.MapEvaluations++
		res.Stats.Iterations = iter
		if !allFinite(gx) {
			return finish(Diverged, fmt.Errorf("%w: map output at iteration %d", ErrNotFinite, iter))
		}
		stepNorm := floats.Distance(gx, x, 2)

		next, report, err := step(x, gx)
		if err != nil {
			return finish(NotTerminated, fmt.Errorf("fixedpoint: iteration %d: %w", iter, err))
		}
		if !allFinite(next) || !allFinite(report) {
			return finish(Diverged, fmt.Errorf("%w: iteration %d", ErrNotFinite, iter))
		}
		x = next

		res.Location = evaluate(s.Objective, report, stepNorm)
		if s.Objective != nil && (best == nil || res.F < best.F) {
			loc := res.Location
			best = &loc
		}
		if s.LogEvery > 0 && iter%s.LogEvery == 0 {
			logger.WithFields(logrus.Fields{
				"iteration": iter,
				"f":         res.F,
				"step_norm": stepNorm,
			}).Info("fixed-point iteration")
		}
		if s.Converger.Converged(&res.Location) {
			return finish(Converged, nil)
		}
	}
	return finish(IterationLimit, ErrMaxIterations)
}

// stepper maps the current x and g(x) to the next base point and the point
// reported to the caller.
type stepper func(x, gx []float64) (next, report []float64, err error)

func newStepper(mode Mode, cfg ampe.Config) (stepper, error) {
	switch mode {
	case Plain:
		return func(_, gx []float64) ([]float64, []float64, error) {
			next := append([]float64(nil), gx...)
			return next, next, nil
		}, nil
	case Extrapolate:
		acc, err := ampe.New(cfg)
		if err != nil {
			return nil, err
		}
		return func(_, gx []float64) ([]float64, []float64, error) {
			report, err := acc.Accelerate(gx)
			return append([]float64(nil), gx...), report, err
		}, nil
	case Feedback:
		acc, err := ampe.New(cfg)
		if err != nil {
			return nil, err
		}
		return func(_, gx []float64) ([]float64, []float64, error) {
			next, err := acc.Accelerate(gx)
			return next, next, err
		}, nil
	case Full:
		acc, err := ampe.NewFull(cfg)
		if err != nil {
			return nil, err
		}
		return func(x, gx []float64) ([]float64, []float64, error) {
			next, err := acc.Accelerate(x, gx)
			return next, next, err
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

func evaluate(obj Objective, x []float64, stepNorm float64) Location {
	loc := Location{X: x, F: math.NaN(), StepNorm: stepNorm}
	if obj != nil {
		loc.F = obj.Func(x)
		loc.Gradient = make([]float64, len(x))
		obj.Grad(loc.Gradient, x)
	}
	return loc
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
