package problems

import (
	"math"
	"testing"

	"github.com/san-kum/rrk/internal/ode"
)

func TestOscillator_Tangency(t *testing.T) {
	sys := NewOscillator()
	sys.Omega = 2.5

	states := []ode.State{{1, 0}, {0.3, -0.7}, {-2, 2}}
	jac := make(ode.State, 2)
	for _, y := range states {
		f := sys.Derive(y, 0)
		if err := sys.EntropyJac(y, jac); err != nil {
			t.Fatalf("EntropyJac returned error: %v", err)
		}
		if dot := jac.Dot(f); dot != 0 {
			t.Errorf("energy not tangent to the flow at %v: %e", y, dot)
		}
	}
}

func TestOscillator_ExactMatchesTrig(t *testing.T) {
	sys := NewOscillator()
	sys.Omega = 3.0

	for _, tt := range []float64{0, 0.5, 1.7} {
		y := sys.Exact(tt)
		if math.Abs(y[0]-math.Cos(3*tt)) > 1e-14 {
			t.Errorf("position at t=%v: %.15f", tt, y[0])
		}
		if math.Abs(y[1]+3*math.Sin(3*tt)) > 1e-14 {
			t.Errorf("velocity at t=%v: %.15f", tt, y[1])
		}
	}
}

func TestOscillator_Params(t *testing.T) {
	sys := NewOscillator()

	if err := sys.SetParam("omega", 4.0); err != nil {
		t.Fatalf("SetParam returned error: %v", err)
	}
	if got := sys.GetParams()["omega"]; got != 4.0 {
		t.Errorf("omega = %v after SetParam, want 4", got)
	}
	if err := sys.SetParam("mass", 1.0); err == nil {
		t.Error("expected an error for an unknown param")
	}
}
