package problems

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rrk/internal/ode"
)

func TestConservedExpEntropy_Tangency(t *testing.T) {
	sys := NewConservedExpEntropy()
	states := []ode.State{
		{1.0, 0.5},
		{0.0, 0.0},
		{-2.0, 3.0},
		{0.7, -1.3},
	}
	jac := make(ode.State, 2)
	for _, y := range states {
		f := sys.Derive(y, 0)
		if err := sys.EntropyJac(y, jac); err != nil {
			t.Fatalf("EntropyJac(%v) returned error: %v", y, err)
		}
		if dot := jac.Dot(f); dot != 0 {
			t.Errorf("entropy not tangent to the flow at %v: <grad e, f> = %e", y, dot)
		}
	}
}

func TestConservedExpEntropy_ExactSolution(t *testing.T) {
	sys := NewConservedExpEntropy()

	y0 := sys.Exact(0)
	want := sys.DefaultState()
	for i := range want {
		if math.Abs(y0[i]-want[i]) > 1e-12 {
			t.Errorf("Exact(0)[%d] = %.15f, want %.15f", i, y0[i], want[i])
		}
	}

	e0, err := sys.Entropy(sys.Exact(0))
	if err != nil {
		t.Fatalf("Entropy returned error: %v", err)
	}
	for _, tt := range []float64{0.25, 0.5, 1.0, 2.0} {
		e, err := sys.Entropy(sys.Exact(tt))
		if err != nil {
			t.Fatalf("Entropy at t=%v returned error: %v", tt, err)
		}
		if rel := math.Abs(e-e0) / e0; rel > 1e-10 {
			t.Errorf("entropy drifts along exact solution at t=%v: relative %.3e", tt, rel)
		}
	}
}

func TestConservedExpEntropy_ExactSatisfiesODE(t *testing.T) {
	sys := NewConservedExpEntropy()
	const delta = 1e-6
	for _, tt := range []float64{0.1, 0.5, 1.0} {
		f := sys.Derive(sys.Exact(tt), tt)
		plus := sys.Exact(tt + delta)
		minus := sys.Exact(tt - delta)
		for i := range f {
			fd := (plus[i] - minus[i]) / (2 * delta)
			if math.Abs(fd-f[i]) > 1e-5 {
				t.Errorf("t=%v component %d: finite difference %.8f vs derivative %.8f", tt, i, fd, f[i])
			}
		}
	}
}

func TestConservedExpEntropy_OverflowRecoverable(t *testing.T) {
	sys := NewConservedExpEntropy()
	bad := []ode.State{
		{800.0, 0.0},
		{0.0, 701.0},
		{math.NaN(), 0.0},
	}
	jac := make(ode.State, 2)
	for _, y := range bad {
		if _, err := sys.Entropy(y); !errors.Is(err, ode.ErrRecoverable) {
			t.Errorf("Entropy(%v) error = %v, want recoverable", y, err)
		}
		if err := sys.EntropyJac(y, jac); !errors.Is(err, ode.ErrRecoverable) {
			t.Errorf("EntropyJac(%v) error = %v, want recoverable", y, err)
		}
	}
}
