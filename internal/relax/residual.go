package relax

import (
	"github.com/san-kum/rrk/internal/ode"
)

// evaluator computes the relaxation residual and its derivative at trial
// parameters. It borrows the session's scratch buffers, so trial states
// never allocate; the (r, yRelax) pair exists only for the duration of
// one call.
//
//	F(r)  = e(yn + r*deltaY) - eOld - r*deltaE
//	F'(r) = <deltaY, grad e(yn + r*deltaY)> - deltaE
type evaluator struct {
	fn    ode.EntropyFn
	jacFn ode.EntropyJacFn

	yn     ode.State // borrowed from the caller
	deltaY ode.State // scratch: ycur - yn
	yRelax ode.State // scratch: trial state
	grad   ode.State // scratch: gradient buffer

	eOld   float64
	deltaE float64

	res float64 // last residual value
	jac float64 // last derivative value

	stats *Stats
}

// residual evaluates F at r. Evaluation counters only move on a
// successful oracle call.
func (ev *evaluator) residual(r float64) (float64, error) {
	ode.LinearSum(1, ev.yn, r, ev.deltaY, ev.yRelax)

	e, err := ev.fn(ev.yRelax)
	if err != nil {
		return 0, err
	}
	ev.stats.FnEvals++

	ev.res = e - ev.eOld - r*ev.deltaE
	return ev.res, nil
}

// jacobian evaluates F' at r.
func (ev *evaluator) jacobian(r float64) (float64, error) {
	ode.LinearSum(1, ev.yn, r, ev.deltaY, ev.yRelax)

	if err := ev.jacFn(ev.yRelax, ev.grad); err != nil {
		return 0, err
	}
	ev.stats.JacEvals++

	ev.jac = ev.deltaY.Dot(ev.grad) - ev.deltaE
	return ev.jac, nil
}
