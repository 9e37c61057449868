package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/sim"
)

// CompareResult pairs two runs of the same setup, with and without the
// relaxation correction.
type CompareResult struct {
	Unrelaxed *sim.Result
	Relaxed   *sim.Result
}

// CompareRelaxation runs the configured problem twice in parallel,
// once plain and once relaxed, so the entropy drift of both can be
// compared on identical settings.
func CompareRelaxation(ctx context.Context, cfg Config) (*CompareResult, error) {
	ens := sim.NewEnsemble(2, func(idx int) (*sim.Session, ode.State, sim.RunConfig, error) {
		c := cfg
		c.Relax = idx == 1
		exp := New(c)
		if err := exp.Setup(); err != nil {
			return nil, nil, sim.RunConfig{}, err
		}
		return exp.session, exp.init, exp.runConfig(), nil
	})

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &CompareResult{Unrelaxed: results[0], Relaxed: results[1]}, nil
}

// ConvergencePoint is one fixed-step run of a convergence sweep.
// Error is zero for problems without a closed-form solution.
type ConvergencePoint struct {
	H     float64
	Error float64
	Drift float64
	Steps int
}

// Convergence runs the configured problem at each fixed step size in
// parallel and reports solution error and entropy drift per size.
func Convergence(ctx context.Context, cfg Config, steps []float64) ([]ConvergencePoint, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("convergence sweep needs at least one step size")
	}
	for _, h := range steps {
		if h <= 0 {
			return nil, fmt.Errorf("invalid step size %g", h)
		}
	}

	ens := sim.NewEnsemble(len(steps), func(idx int) (*sim.Session, ode.State, sim.RunConfig, error) {
		c := cfg
		c.FixedStep = true
		c.H0 = steps[idx]
		exp := New(c)
		if err := exp.Setup(); err != nil {
			return nil, nil, sim.RunConfig{}, err
		}
		return exp.session, exp.init, exp.runConfig(), nil
	})

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]ConvergencePoint, len(steps))
	for i, res := range results {
		points[i] = ConvergencePoint{
			H:     steps[i],
			Error: res.Metrics["solution_error"],
			Drift: res.Metrics["entropy_drift"],
			Steps: res.Steps,
		}
	}
	return points, nil
}
