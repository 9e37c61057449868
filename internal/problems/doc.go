// Package problems provides test systems with known entropy behavior.
//
// Each system implements the [ode.System] interface together with the
// [ode.Entropy] capability, exposing the scalar functional relaxation
// drives to its exact balance:
//
//   - [ConservedExpEntropy]: exponential entropy held exactly constant
//   - [DissipatedExpEntropy]: exponential entropy decaying monotonically
//   - [Oscillator]: harmonic oscillator with quadratic energy
//   - [Pendulum]: planar pendulum, conservative or damped
//
// Systems with closed-form solutions expose an Exact method for the
// default initial state, used to measure solution error independently
// of entropy drift.
//
// The exponential problems report a recoverable failure from their
// entropy oracles when a trial state would overflow exp, so a relaxation
// solve probing a wild parameter retries at a smaller step instead of
// propagating infinities.
package problems
