package ode

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Dot(other State) float64 {
	sum := 0.0
	for i := range s {
		sum += s[i] * other[i]
	}
	return sum
}

// LinearSum stores a*x + b*y into dst without allocating. dst may alias
// x or y, so relaxation blends can run in place.
func LinearSum(a float64, x State, b float64, y State, dst State) {
	for i := range dst {
		dst[i] = a*x[i] + b*y[i]
	}
}

// Sub stores x - y into dst without allocating.
func Sub(x, y State, dst State) {
	for i := range dst {
		dst[i] = x[i] - y[i]
	}
}

// System describes an ODE y' = f(y, t).
type System interface {
	Derive(y State, t float64) State
	Dim() int
}

// EntropyFn evaluates a scalar functional e(y) of the state. A failure
// wrapped with [ErrRecoverable] permits the caller to retry with a
// different state; any other error is treated as unrecoverable.
type EntropyFn func(y State) (float64, error)

// EntropyJacFn evaluates the gradient of the functional into jac, which
// has the state's length.
type EntropyJacFn func(y State, jac State) error

// Entropy is the capability systems implement to expose a conserved or
// dissipated functional alongside their dynamics.
type Entropy interface {
	Entropy(y State) (float64, error)
	EntropyJac(y State, jac State) error
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
