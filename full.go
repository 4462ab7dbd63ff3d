package ampe

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FullAccelerator is Anderson acceleration over paired histories of
// inputs x and map outputs g(x).
//
// Residuals are fᵢ = g(xᵢ) − xᵢ and the next iterate is
//
//	x⁺ = β Σ αᵢ g(xᵢ) + (1−β) Σ αᵢ xᵢ
//
// with α chosen as in Accelerator. Unlike Accelerator, the result is meant
// to be fed back as the next x.
type FullAccelerator struct {
	cfg     Config
	dim     int
	xs, gs  window
	weights []float64
}

// NewFull creates a FullAccelerator.
func NewFull(cfg Config) (*FullAccelerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FullAccelerator{
		cfg: cfg,
		xs:  newWindow(cfg.WindowSize + 1),
		gs:  newWindow(cfg.WindowSize + 1),
	}, nil
}

// Accelerate records the pair (x, gx) and returns the next iterate.
// On the first call this is the damped step β·gx + (1−β)·x.
func (a *FullAccelerator) Accelerate(x, gx []float64) ([]float64, error) {
	if err := checkVector(x, a.dim); err != nil {
		return nil, err
	}
	if err := checkVector(gx, len(x)); err != nil {
		return nil, fmt.Errorf("map output: %w", err)
	}
	a.dim = len(x)
	a.xs.push(x)
	a.gs.push(gx)

	xs, gs := a.xs.vecs, a.gs.vecs
	res := make([][]float64, len(xs))
	for i := range res {
		res[i] = make([]float64, a.dim)
		floats.SubTo(res[i], gs[i], xs[i])
	}
	a.weights = combinationWeights(res, a.cfg.Regularization)

	beta := a.cfg.MixingParameter
	out := make([]float64, a.dim)
	for i, w := range a.weights {
		floats.AddScaled(out, beta*w, gs[i])
		if beta < 1 {
			floats.AddScaled(out, (1-beta)*w, xs[i])
		}
	}
	return out, nil
}

// Weights returns a copy of the weights used by the last call.
func (a *FullAccelerator) Weights() []float64 {
	if a.weights == nil {
		return nil
	}
	return append([]float64(nil), a.weights...)
}

// Len returns the number of stored pairs.
func (a *FullAccelerator) Len() int { return a.xs.len() }

// Dim returns the established dimension, or 0 before the first call.
func (a *FullAccelerator) Dim() int { return a.dim }

// Config returns the hyperparameters.
func (a *FullAccelerator) Config() Config { return a.cfg }

// Reset forgets both histories and the dimension.
func (a *FullAccelerator) Reset() {
	a.xs.clear()
	a.gs.clear()
	a.dim = 0
	a.weights = nil
}
