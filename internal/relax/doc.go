// Package relax computes relaxation parameters for Runge-Kutta steps so
// that a scalar entropy functional of the solution obeys its exact
// balance law.
//
// A completed step proposes ycur = yn + dy. Relaxation replaces it with
// yn + r*dy, where r solves
//
//	F(r) = e(yn + r*dy) - e(yn) - r*de = 0
//
// and de is the entropy change predicted by the method's own stages.
// For conservative systems this pins e exactly; for dissipative ones it
// enforces the dissipation estimate instead of the truncation error.
//
//   - [Relaxer]: per-integration session owning the scratch buffers,
//     the solver and the counters
//   - [Attempt] / [Outcome]: one step in, one ruling out
//   - [SolverKind]: Newton-Raphson or bracketed Brent
//
// The orchestrator never panics on a bad step: every failure is folded
// into a Retry outcome carrying a step shrink factor, or a Fatal one
// when shrinking cannot help (fixed step sizes, the minimum step, an
// exhausted failure budget, or a non-recoverable oracle error).
//
// # Example
//
//	rx, _ := relax.New(stepper, sys.Entropy, sys.EntropyJac, relax.DefaultConfig())
//	out := rx.Relax(&relax.Attempt{Yn: yn, Ycur: ycur, H: h, ErrNorm: enorm})
//	switch out.Verdict {
//	case relax.Accepted:
//		h = out.H // ycur already rescaled in place
//	case relax.Retry:
//		h *= out.Eta
//	case relax.Fatal:
//		return out.Err
//	}
//
// Relaxer instances are NOT thread-safe.
package relax
