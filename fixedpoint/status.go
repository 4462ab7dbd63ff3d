package fixedpoint

import "fmt"

// Status describes how Solve terminated.
type Status int

const (
	NotTerminated Status = iota
	Converged
	IterationLimit
	Canceled
	Diverged
)

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "NotTerminated"
	case Converged:
		return "Converged"
	case IterationLimit:
		return "IterationLimit"
	case Canceled:
		return "Canceled"
	case Diverged:
		return "Diverged"
	default:
		return "Unknown"
	}
}

// Mode selects how Solve uses the accelerator.
type Mode int

const (
	// Plain iterates x ← g(x) without acceleration.
	Plain Mode = iota

	// Extrapolate iterates x ← g(x) and feeds every g(x) to an
	// ampe.Accelerator. The extrapolated point is reported and tested for
	// convergence, but the base sequence is left alone.
	Extrapolate

	// Feedback uses the extrapolated point as the next x.
	Feedback

	// Full runs ampe.FullAccelerator: x ← accelerate(x, g(x)).
	Full
)

func (m Mode) String() string {
	switch m {
	case Plain:
		return "plain"
	case Extrapolate:
		return "extrapolate"
	case Feedback:
		return "feedback"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// MarshalText encodes m by name, so that Settings reads "mode": "full" in
// JSON.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case Plain, Extrapolate, Feedback, Full:
		return []byte(m.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// UnmarshalText decodes a mode name produced by MarshalText.
func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range []Mode{Plain, Extrapolate, Feedback, Full} {
		if string(text) == candidate.String() {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, text)
}
