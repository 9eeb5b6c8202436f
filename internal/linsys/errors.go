package linsys

import (
	"errors"
	"fmt"
)

// Domain errors for system construction and simulation.
var (
	// ErrInvalidOptions indicates a builder option outside its valid range.
	ErrInvalidOptions = errors.New("linsys: invalid system options")

	// ErrPartialFilter indicates some but not all of C, V and W are set.
	ErrPartialFilter = errors.New("linsys: filter requires all of C, V and W")

	// ErrDimensionMismatch indicates mismatched state, covariance or system dimensions.
	ErrDimensionMismatch = errors.New("linsys: dimension mismatch between state and system")

	// ErrSingularInnovation indicates the innovation covariance could not be inverted.
	ErrSingularInnovation = errors.New("linsys: innovation covariance is singular")

	// ErrNoControlLaw indicates a system with neither a gain nor a controller.
	ErrNoControlLaw = errors.New("linsys: no control law configured")

	// ErrInvalidState indicates a NaN or Inf in the propagated state.
	ErrInvalidState = errors.New("linsys: invalid state (NaN or Inf detected)")
)

// SimulationError wraps an error with the tick at which the run aborted.
type SimulationError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

func dimErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDimensionMismatch}, args...)...)
}
