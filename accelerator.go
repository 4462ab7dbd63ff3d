package ampe

import "gonum.org/v1/gonum/floats"

// Accelerator extrapolates a sequence of fixed-point iterates.
//
// It receives map outputs y = g(x) one at a time and uses the consecutive
// differences of the stored outputs as residuals. With a single sequence
// the mixing parameter has no effect; see FullAccelerator for the variant
// that tracks inputs and outputs separately.
//
// An Accelerator is not safe for concurrent use. Each optimization run
// should own its own instance.
type Accelerator struct {
	cfg     Config
	dim     int
	history window
	weights []float64
}

// New creates an Accelerator. The returned error wraps ErrInvalidConfig
// when cfg does not validate.
func New(cfg Config) (*Accelerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Accelerator{
		cfg:     cfg,
		history: newWindow(cfg.WindowSize + 1),
	}, nil
}

// Accelerate records raw and returns the extrapolated next iterate.
//
// The first call establishes the dimension and returns a copy of raw.
// Later calls return Σ αⱼ·yⱼ₊₁ over the stored iterates y, where α
// minimizes the regularized norm of the combined consecutive differences
// subject to Σα = 1.
//
// The error wraps ErrDimensionMismatch, ErrEmptyVector or ErrNonFinite;
// on error the history is unchanged. raw is never retained.
func (a *Accelerator) Accelerate(raw []float64) ([]float64, error) {
	if err := checkVector(raw, a.dim); err != nil {
		return nil, err
	}
	a.dim = len(raw)
	a.history.push(raw)

	ys := a.history.vecs
	if len(ys) == 1 {
		a.weights = nil
		return append([]float64(nil), raw...), nil
	}

	diffs := make([][]float64, len(ys)-1)
	for j := range diffs {
		diffs[j] = make([]float64, a.dim)
		floats.SubTo(diffs[j], ys[j+1], ys[j])
	}
	a.weights = combinationWeights(diffs, a.cfg.Regularization)

	out := make([]float64, a.dim)
	for j, w := range a.weights {
		floats.AddScaled(out, w, ys[j+1])
	}
	return out, nil
}

// Weights returns a copy of the weights used by the last call to
// Accelerate, or nil if no extrapolation has happened yet.
func (a *Accelerator) Weights() []float64 {
	if a.weights == nil {
		return nil
	}
	return append([]float64(nil), a.weights...)
}

// Len returns the number of stored iterates, at most WindowSize+1.
func (a *Accelerator) Len() int { return a.history.len() }

// Dim returns the established dimension, or 0 before the first call.
func (a *Accelerator) Dim() int { return a.dim }

// Config returns the hyperparameters.
func (a *Accelerator) Config() Config { return a.cfg }

// Reset forgets the history and the dimension.
func (a *Accelerator) Reset() {
	a.history.clear()
	a.dim = 0
	a.weights = nil
}
