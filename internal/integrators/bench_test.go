package integrators

import (
	"testing"

	"github.com/san-kum/rrk/internal/ode"
)

type benchSystem struct{}

func (b *benchSystem) Derive(y ode.State, t float64) ode.State {
	return ode.State{y[1], -y[0]}
}

func (b *benchSystem) Dim() int { return 2 }

func benchmarkStep(b *testing.B, tab Tableau) {
	e := NewERK(tab)
	sys := &benchSystem{}
	y := ode.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y, _ = e.Step(sys, y, 0, 0.01, 1e-6, 1e-9)
	}
}

func BenchmarkERK_Euler(b *testing.B)           { benchmarkStep(b, Euler()) }
func BenchmarkERK_HeunEuler(b *testing.B)       { benchmarkStep(b, HeunEuler()) }
func BenchmarkERK_BogackiShampine(b *testing.B) { benchmarkStep(b, BogackiShampine()) }
func BenchmarkERK_ClassicRK4(b *testing.B)      { benchmarkStep(b, ClassicRK4()) }
func BenchmarkERK_DormandPrince(b *testing.B)   { benchmarkStep(b, DormandPrince()) }

func BenchmarkERK_EstimateDeltaE(b *testing.B) {
	e := NewERK(DormandPrince())
	sys := &benchSystem{}
	e.Step(sys, ode.State{1.0, 0.0}, 0, 0.01, 1e-6, 1e-9)

	jacFn := func(y ode.State, jac ode.State) error {
		copy(jac, y)
		return nil
	}
	grad := make(ode.State, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := e.EstimateDeltaE(jacFn, grad); err != nil {
			b.Fatal(err)
		}
	}
}
