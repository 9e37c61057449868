// Package ode provides core primitives for structure-preserving time
// integration.
//
// The package defines the fundamental types shared by the steppers and
// the relaxation solver:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dy/dt = f(y, t))
//   - [Entropy]: optional capability exposing a conserved or dissipated
//     scalar functional e(y) and its gradient
//   - [LinearSum], [Sub]: in-place vector combinations used on hot paths
//
// # Entropy functionals
//
// Systems that implement [Entropy] can be integrated with relaxation so
// that e(y) follows its exact algebraic balance law instead of drifting
// at the method's truncation order:
//
//	sys := problems.NewConservedExpEntropy()
//	e0, _ := sys.Entropy(y0)
//
// Oracles report recoverable failures (a bad trial state, safe to retry
// elsewhere) by wrapping [ErrRecoverable]; any other error aborts the
// integration session.
//
// # Thread Safety
//
// States and sessions are NOT thread-safe. For parameter sweeps, use the
// sim package's Ensemble type, which runs independent sessions.
package ode
