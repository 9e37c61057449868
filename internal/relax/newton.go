package relax

import "math"

// newtonSolver runs plain Newton-Raphson on the relaxation residual: no
// line search, no Jacobian reuse. Every iteration pays one residual and
// one derivative evaluation.
type newtonSolver struct {
	cfg *Config
}

func (s *newtonSolver) solve(ev *evaluator, seed float64) (float64, error) {
	r := seed

	for i := 0; i < s.cfg.MaxIters; i++ {
		res, err := ev.residual(r)
		if err != nil {
			return r, err
		}
		if math.Abs(res) < s.cfg.ResTol {
			return r, nil
		}

		jac, err := ev.jacobian(r)
		if err != nil {
			return r, err
		}
		if jac == 0 {
			return r, ErrSolverDiverged
		}
		ev.stats.SolverIters++

		delta := res / jac
		r -= delta
		if math.Abs(delta) < s.cfg.RelTol*math.Abs(r)+s.cfg.AbsTol {
			return r, nil
		}
	}

	return r, ErrIterationLimit
}
