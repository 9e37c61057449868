package problems

import (
	"fmt"
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// Oscillator is the harmonic oscillator x' = v, v' = -omega^2 x with
// quadratic energy e = 0.5*(v^2 + omega^2 x^2). Its entropy oracles
// never fail, which makes it the clean baseline for counter tests and
// long-horizon drift runs.
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator {
	return &Oscillator{Omega: 1.0}
}

func (o *Oscillator) Dim() int { return 2 }

func (o *Oscillator) DefaultState() ode.State {
	return ode.State{1.0, 0.0}
}

func (o *Oscillator) Derive(y ode.State, t float64) ode.State {
	return ode.State{y[1], -o.Omega * o.Omega * y[0]}
}

func (o *Oscillator) Entropy(y ode.State) (float64, error) {
	return 0.5 * (y[1]*y[1] + o.Omega*o.Omega*y[0]*y[0]), nil
}

func (o *Oscillator) EntropyJac(y ode.State, jac ode.State) error {
	jac[0] = o.Omega * o.Omega * y[0]
	jac[1] = y[1]
	return nil
}

// Exact returns the analytic solution at time t for DefaultState.
func (o *Oscillator) Exact(t float64) ode.State {
	return ode.State{math.Cos(o.Omega * t), -o.Omega * math.Sin(o.Omega*t)}
}

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{
		"omega": o.Omega,
	}
}

func (o *Oscillator) SetParam(name string, value float64) error {
	switch name {
	case "omega":
		o.Omega = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
