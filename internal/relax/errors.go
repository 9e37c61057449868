package relax

import "errors"

// Failure classification for relaxation solves. Everything here except
// ErrInvalidConfig is folded into the Retry/Fatal outcome by the
// orchestrator; callers never see solver-internal errors directly.
var (
	// ErrInvalidConfig indicates a structurally unusable configuration:
	// a missing entropy functional or gradient, or an unknown solver
	// kind. Rejected at construction time.
	ErrInvalidConfig = errors.New("relax: invalid configuration")

	// ErrSolverDiverged indicates Newton hit a vanishing Jacobian or
	// the bracketing search found no sign change.
	ErrSolverDiverged = errors.New("relax: nonlinear solver diverged")

	// ErrIterationLimit indicates the solver ran out of iterations
	// before meeting its tolerances.
	ErrIterationLimit = errors.New("relax: nonlinear solver iteration limit reached")

	// ErrBoundViolation indicates the computed relaxation parameter fell
	// outside the configured acceptance window.
	ErrBoundViolation = errors.New("relax: relaxation parameter out of bounds")

	// ErrMaxFails indicates the per-step failure budget was exhausted.
	ErrMaxFails = errors.New("relax: too many relaxation failures in one step")
)
