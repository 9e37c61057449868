package ode

import "errors"

// Domain errors for integration operations.
var (
	// ErrRecoverable marks an evaluation failure the caller may retry
	// with different inputs. Entropy oracles wrap it to distinguish a
	// bad trial state from an unrecoverable fault.
	ErrRecoverable = errors.New("ode: recoverable evaluation failure")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("ode: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step size fell below its floor.
	ErrStepTooSmall = errors.New("ode: step size below minimum")

	// ErrTooManySteps indicates the step budget ran out before reaching
	// the end of the integration interval.
	ErrTooManySteps = errors.New("ode: maximum number of steps reached")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("ode: dimension mismatch between state and system")
)
