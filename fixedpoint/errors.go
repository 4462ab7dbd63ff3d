package fixedpoint

import "errors"

var (
	// ErrEmptyStart is returned when the starting point has no elements.
	ErrEmptyStart = errors.New("fixedpoint: empty starting point")

	// ErrMaxIterations is returned when the iteration limit is reached
	// before the convergence criterion holds.
	ErrMaxIterations = errors.New("fixedpoint: iteration limit reached")

	// ErrNotFinite is returned when an iterate contains NaN or Inf.
	ErrNotFinite = errors.New("fixedpoint: iterate is not finite")

	// ErrMissingObjective is returned when the convergence criterion needs
	// function or gradient values but no Objective was given.
	ErrMissingObjective = errors.New("fixedpoint: convergence criterion requires an objective")

	// ErrUnknownMode is returned for Mode values outside the defined set.
	ErrUnknownMode = errors.New("fixedpoint: unknown mode")

	// ErrInvalidProblem is returned for malformed objectives.
	ErrInvalidProblem = errors.New("fixedpoint: invalid problem")
)
