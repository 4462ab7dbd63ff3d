package ampe

import (
	"fmt"
	"math"
)

// Config holds the hyperparameters of an accelerator.
// All fields are taken literally: a zero MixingParameter means β = 0.
// Start from DefaultConfig and override what you need.
type Config struct {
	WindowSize      int     `json:"window_size"`      // m, number of previous iterates kept (≥ 1)
	Regularization  float64 `json:"regularization"`   // λ, Tikhonov damping on the weights (≥ 0)
	MixingParameter float64 `json:"mixing_parameter"` // β, blend of map outputs vs inputs, in [0, 1]
}

// DefaultConfig returns WindowSize=5, Regularization=0, MixingParameter=1.
func DefaultConfig() Config {
	return Config{
		WindowSize:      5,
		Regularization:  0,
		MixingParameter: 1,
	}
}

// Validate reports whether the hyperparameters are usable.
// The returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size %d must be at least 1", ErrInvalidConfig, c.WindowSize)
	}
	if c.Regularization < 0 || math.IsNaN(c.Regularization) || math.IsInf(c.Regularization, 0) {
		return fmt.Errorf("%w: regularization %v must be finite and non-negative", ErrInvalidConfig, c.Regularization)
	}
	if !(c.MixingParameter >= 0 && c.MixingParameter <= 1) {
		return fmt.Errorf("%w: mixing parameter %v out of range [0, 1]", ErrInvalidConfig, c.MixingParameter)
	}
	return nil
}
