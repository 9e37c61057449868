package integrators

import (
	"errors"
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// ErrNoStep is returned when an entropy change estimate is requested
// before any step has completed.
var ErrNoStep = errors.New("integrators: no completed step to estimate from")

// ERK advances a system with an explicit Runge-Kutta tableau. The stage
// states and derivatives of the last completed step are retained so the
// relaxation layer can reconstruct the entropy change the method itself
// produced; see EstimateDeltaE.
type ERK struct {
	tab Tableau

	k []ode.State // stage derivatives of the last step
	z []ode.State // stage states of the last step
	h float64     // step size of the last step

	fnEvals int64
}

func NewERK(tab Tableau) *ERK {
	return &ERK{tab: tab}
}

func (e *ERK) Name() string { return e.tab.Name }

// Tableau returns the method's coefficients.
func (e *ERK) Tableau() Tableau { return e.tab }

// Order returns the order of the higher member of the pair.
func (e *ERK) Order() int { return e.tab.Order }

// Adaptive reports whether the method carries an embedded error
// estimate.
func (e *ERK) Adaptive() bool { return e.tab.Adaptive() }

// FnEvals returns the number of derivative evaluations so far.
func (e *ERK) FnEvals() int64 { return e.fnEvals }

// Step advances y by one step of size h at time t. It returns the
// proposed solution and the weighted error norm of the embedded
// estimate; a norm of at most one meets the tolerances. Fixed-step
// tableaus report a zero norm. The input state is not modified.
func (e *ERK) Step(sys ode.System, y ode.State, t, h, rtol, atol float64) (ode.State, float64) {
	n := len(y)
	e.ensureScratch(n)
	e.h = h

	stages := e.tab.Stages()
	for i := 0; i < stages; i++ {
		copy(e.z[i], y)
		for j := 0; j < i; j++ {
			a := e.tab.A[i][j]
			if a == 0 {
				continue
			}
			for m := 0; m < n; m++ {
				e.z[i][m] += h * a * e.k[j][m]
			}
		}
		copy(e.k[i], sys.Derive(e.z[i], t+e.tab.C[i]*h))
		e.fnEvals++
	}

	ynew := y.Clone()
	for i := 0; i < stages; i++ {
		b := e.tab.B[i]
		if b == 0 {
			continue
		}
		for m := 0; m < n; m++ {
			ynew[m] += h * b * e.k[i][m]
		}
	}

	if !e.tab.Adaptive() {
		return ynew, 0
	}

	enorm := 0.0
	for m := 0; m < n; m++ {
		diff := 0.0
		for i := 0; i < stages; i++ {
			diff += (e.tab.B[i] - e.tab.BHat[i]) * e.k[i][m]
		}
		diff *= h
		w := atol + rtol*math.Max(math.Abs(y[m]), math.Abs(ynew[m]))
		enorm = math.Max(enorm, math.Abs(diff)/w)
	}
	return ynew, enorm
}

// EstimateDeltaE computes the entropy change predicted by the stages of
// the last completed step,
//
//	de = h * sum_i b_i * <grad e(z_i), k_i>
//
// writing each gradient into the caller's buffer. The returned count is
// the number of successful gradient evaluations, reported even when a
// later one fails.
func (e *ERK) EstimateDeltaE(jacFn ode.EntropyJacFn, grad ode.State) (float64, int, error) {
	if e.k == nil {
		return 0, 0, ErrNoStep
	}

	sum := 0.0
	evals := 0
	for i := 0; i < e.tab.Stages(); i++ {
		b := e.tab.B[i]
		if b == 0 {
			continue
		}
		if err := jacFn(e.z[i], grad); err != nil {
			return 0, evals, err
		}
		evals++
		sum += b * grad.Dot(e.k[i])
	}
	return e.h * sum, evals, nil
}

func (e *ERK) ensureScratch(n int) {
	if e.k != nil && len(e.k[0]) == n {
		return
	}
	stages := e.tab.Stages()
	e.k = make([]ode.State, stages)
	e.z = make([]ode.State, stages)
	for i := 0; i < stages; i++ {
		e.k[i] = make(ode.State, n)
		e.z[i] = make(ode.State, n)
	}
}
