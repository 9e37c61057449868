package problems

import (
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// DissipatedExpEntropy is the scalar system y' = -exp(y) whose
// exponential entropy e(y) = exp(y) decays monotonically. Relaxation
// pins the decay to the rate the method's stages predict.
type DissipatedExpEntropy struct{}

func NewDissipatedExpEntropy() *DissipatedExpEntropy {
	return &DissipatedExpEntropy{}
}

func (d *DissipatedExpEntropy) Dim() int { return 1 }

func (d *DissipatedExpEntropy) DefaultState() ode.State {
	return ode.State{1.0}
}

func (d *DissipatedExpEntropy) Derive(y ode.State, t float64) ode.State {
	return ode.State{-math.Exp(y[0])}
}

func (d *DissipatedExpEntropy) Entropy(y ode.State) (float64, error) {
	if err := checkExpArgs(y); err != nil {
		return 0, err
	}
	return math.Exp(y[0]), nil
}

func (d *DissipatedExpEntropy) EntropyJac(y ode.State, jac ode.State) error {
	if err := checkExpArgs(y); err != nil {
		return err
	}
	jac[0] = math.Exp(y[0])
	return nil
}

// Exact returns the analytic solution y(t) = -log(exp(-1) + t) for
// DefaultState.
func (d *DissipatedExpEntropy) Exact(t float64) ode.State {
	return ode.State{-math.Log(math.Exp(-1.0) + t)}
}
