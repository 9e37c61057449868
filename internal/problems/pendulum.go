package problems

import (
	"fmt"
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// Pendulum is a planar pendulum with state (theta, omega) and entropy
// equal to its mechanical energy. With zero damping the energy is
// conserved; with damping it dissipates at the rate the stages see.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) Dim() int { return 2 }

func (p *Pendulum) DefaultState() ode.State {
	return ode.State{math.Pi / 4, 0.0}
}

func (p *Pendulum) Derive(y ode.State, t float64) ode.State {
	theta := y[0]
	omega := y[1]

	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta)) /
		(p.Mass * p.Length * p.Length)

	return ode.State{omega, alpha}
}

func (p *Pendulum) Entropy(y ode.State) (float64, error) {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.Length * y[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(y[0]))
	return ke + pe, nil
}

func (p *Pendulum) EntropyJac(y ode.State, jac ode.State) error {
	jac[0] = p.Mass * p.Gravity * p.Length * math.Sin(y[0])
	jac[1] = p.Mass * p.Length * p.Length * y[1]
	return nil
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
