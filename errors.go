package ampe

import "errors"

// Sentinel errors for the ampe package.
// Use errors.Is to check: errors.Is(err, ampe.ErrDimensionMismatch)
var (
	ErrInvalidConfig     = errors.New("ampe: invalid configuration")
	ErrDimensionMismatch = errors.New("ampe: dimension mismatch")
	ErrEmptyVector       = errors.New("ampe: empty vector")
	ErrNonFinite         = errors.New("ampe: non-finite value")
)
