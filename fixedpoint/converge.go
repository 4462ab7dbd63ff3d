package fixedpoint

import "gonum.org/v1/gonum/floats"

// Location is the point reported after an iteration.
type Location struct {
	X        []float64
	F        float64   // objective value at X; NaN without an Objective
	Gradient []float64 // gradient at X; nil without an Objective
	StepNorm float64   // ‖g(x) − x‖₂ at the base point of the iteration
}

// Converger decides whether the iteration can stop.
// Converged must not modify loc.
type Converger interface {
	Converged(loc *Location) bool
}

// GradientThreshold stops once ‖∇f(x)‖₂ falls below the threshold.
type GradientThreshold float64

func (t GradientThreshold) Converged(loc *Location) bool {
	if loc.Gradient == nil {
		return false
	}
	return floats.Norm(loc.Gradient, 2) < float64(t)
}

// ObjectiveGap stops once f(x) − Optimum falls below Threshold.
type ObjectiveGap struct {
	Optimum   float64
	Threshold float64
}

func (g ObjectiveGap) Converged(loc *Location) bool {
	return loc.F-g.Optimum < g.Threshold
}

// StepThreshold stops once ‖g(x) − x‖₂ falls below the threshold.
type StepThreshold float64

func (t StepThreshold) Converged(loc *Location) bool {
	return loc.StepNorm < float64(t)
}

// needsObjective reports whether c reads F or Gradient.
func needsObjective(c Converger) bool {
	switch c.(type) {
	case GradientThreshold, *GradientThreshold, ObjectiveGap, *ObjectiveGap:
		return true
	}
	return false
}
