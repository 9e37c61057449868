package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/problems"
)

func TestStepSizeSpread(t *testing.T) {
	m := NewStepSizeSpread()
	y := ode.State{0}

	if m.Value() != 1.0 {
		t.Errorf("spread with no samples = %v, want 1", m.Value())
	}

	for _, tt := range []float64{0, 0.1, 0.2, 0.25, 0.65} {
		m.Observe(y, tt)
	}

	// Steps were 0.1, 0.1, 0.05, 0.4.
	if math.Abs(m.Value()-8.0) > 1e-12 {
		t.Errorf("spread = %v, want 8", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Errorf("spread after reset = %v, want 1", m.Value())
	}
}

func TestSolutionError(t *testing.T) {
	sys := problems.NewOscillator()
	m := NewSolutionError(sys.Exact)

	m.Observe(sys.Exact(0.5), 0.5)
	if m.Value() > 1e-15 {
		t.Errorf("error against the exact solution itself = %e", m.Value())
	}

	off := sys.Exact(1.0)
	off[0] += 1e-3
	m.Observe(off, 1.0)
	if math.Abs(m.Value()-1e-3) > 1e-12 {
		t.Errorf("error = %v, want 1e-3", m.Value())
	}
}
