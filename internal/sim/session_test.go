package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rrk/internal/integrators"
	"github.com/san-kum/rrk/internal/metrics"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/problems"
	"github.com/san-kum/rrk/internal/relax"
)

func relaxedSession(t *testing.T, sys ode.System, tab integrators.Tableau) *Session {
	t.Helper()
	sess := New(sys, integrators.NewERK(tab))
	if err := sess.EnableRelaxation(relax.DefaultConfig()); err != nil {
		t.Fatalf("EnableRelaxation returned error: %v", err)
	}
	return sess
}

func TestSession_RelaxedConservation(t *testing.T) {
	sys := problems.NewConservedExpEntropy()
	sess := relaxedSession(t, sys, integrators.DormandPrince())
	sess.AddMetric(metrics.NewEntropyDrift(sys))

	res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Steps == 0 {
		t.Fatal("no steps accepted")
	}
	if drift := res.Metrics["entropy_drift"]; drift > 1e-11 {
		t.Errorf("relaxed entropy drift = %.3e, want near rounding", drift)
	}
	for i, p := range res.Params {
		if p < 0.8 || p > 1.2 {
			t.Errorf("step %d: relaxation parameter %v outside the window", i, p)
		}
	}
	if res.RelaxStats.FnEvals == 0 || res.RelaxStats.JacEvals == 0 {
		t.Errorf("relaxation did no work: %+v", res.RelaxStats)
	}
}

func TestSession_RelaxationTightensDrift(t *testing.T) {
	run := func(relaxed bool) float64 {
		sys := problems.NewConservedExpEntropy()
		sess := New(sys, integrators.NewERK(integrators.DormandPrince()))
		if relaxed {
			if err := sess.EnableRelaxation(relax.DefaultConfig()); err != nil {
				t.Fatalf("EnableRelaxation returned error: %v", err)
			}
		}
		sess.AddMetric(metrics.NewEntropyDrift(sys))
		res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 2.0, RelTol: 1e-5, AbsTol: 1e-8})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return res.Metrics["entropy_drift"]
	}

	plain := run(false)
	relaxed := run(true)

	if plain < 1e-10 {
		t.Fatalf("baseline drift %.3e suspiciously small, test problem too easy", plain)
	}
	if relaxed > plain/100 {
		t.Errorf("relaxation barely helped: %.3e relaxed vs %.3e plain", relaxed, plain)
	}
}

func TestSession_SolutionAccuracy(t *testing.T) {
	sys := problems.NewConservedExpEntropy()
	sess := relaxedSession(t, sys, integrators.DormandPrince())
	sess.AddMetric(metrics.NewSolutionError(sys.Exact))

	res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if e := res.Metrics["solution_error"]; e > 1e-4 {
		t.Errorf("solution error = %.3e against the analytic solution", e)
	}
}

func TestSession_FixedStepRelaxed(t *testing.T) {
	sys := problems.NewConservedExpEntropy()
	sess := relaxedSession(t, sys, integrators.ClassicRK4())
	sess.AddMetric(metrics.NewEntropyDrift(sys))

	res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{
		Duration:  0.5,
		H0:        0.01,
		FixedStep: true,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Steps < 45 {
		t.Errorf("accepted %d steps, want about 50", res.Steps)
	}
	if res.ErrRejects != 0 {
		t.Errorf("fixed-step run reported %d error rejections", res.ErrRejects)
	}
	if drift := res.Metrics["entropy_drift"]; drift > 1e-11 {
		t.Errorf("entropy drift = %.3e", drift)
	}
}

func TestSession_DissipatedEntropyMonotone(t *testing.T) {
	sys := problems.NewDissipatedExpEntropy()
	sess := relaxedSession(t, sys, integrators.BogackiShampine())

	res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 2.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	prev := math.Inf(1)
	for i, y := range res.States {
		e, err := sys.Entropy(y)
		if err != nil {
			t.Fatalf("entropy at state %d: %v", i, err)
		}
		if e >= prev {
			t.Errorf("entropy rose at state %d: %.12f >= %.12f", i, e, prev)
		}
		prev = e
	}
}

func TestSession_TrajectoryShape(t *testing.T) {
	sys := problems.NewOscillator()
	sess := relaxedSession(t, sys, integrators.DormandPrince())

	res, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.States) != res.Steps+1 || len(res.Times) != res.Steps+1 {
		t.Errorf("states/times = %d/%d for %d steps", len(res.States), len(res.Times), res.Steps)
	}
	if len(res.Params) != res.Steps {
		t.Errorf("params = %d for %d steps", len(res.Params), res.Steps)
	}
	if res.Times[0] != 0 {
		t.Errorf("first time = %v", res.Times[0])
	}
	last := res.Times[len(res.Times)-1]
	if last < 1.0-1e-9 {
		t.Errorf("run stopped at t=%v, want to reach 1", last)
	}
	if res.FnEvals == 0 {
		t.Error("no derivative evaluations recorded")
	}
}

func TestSession_CallbackStopsEarly(t *testing.T) {
	sys := problems.NewOscillator()
	sess := relaxedSession(t, sys, integrators.DormandPrince())

	calls := 0
	res, err := sess.RunWithCallback(context.Background(), sys.DefaultState(), RunConfig{Duration: 10.0},
		func(y ode.State, tt, param float64) bool {
			calls++
			return calls < 3
		})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("callback ran %d times, want 3", calls)
	}
	if res.Steps != 3 {
		t.Errorf("accepted %d steps before stopping, want 3", res.Steps)
	}
}

func TestSession_ContextCancelled(t *testing.T) {
	sys := problems.NewOscillator()
	sess := relaxedSession(t, sys, integrators.DormandPrince())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sess.Run(ctx, sys.DefaultState(), RunConfig{Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil || len(res.States) != 1 {
		t.Errorf("expected the partial result with only the initial state")
	}
}

func TestSession_AttemptBudget(t *testing.T) {
	sys := problems.NewConservedExpEntropy()
	sess := relaxedSession(t, sys, integrators.DormandPrince())

	_, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{
		Duration: 100.0,
		RelTol:   1e-12,
		AbsTol:   1e-14,
		MaxSteps: 5,
	})
	if !errors.Is(err, ode.ErrTooManySteps) {
		t.Errorf("error = %v, want the attempt budget", err)
	}
}

func TestSession_ConfigValidation(t *testing.T) {
	sys := problems.NewOscillator()

	t.Run("bad duration", func(t *testing.T) {
		sess := New(sys, integrators.NewERK(integrators.DormandPrince()))
		if _, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{}); err == nil {
			t.Error("expected an error for zero duration")
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		sess := New(sys, integrators.NewERK(integrators.DormandPrince()))
		_, err := sess.Run(context.Background(), ode.State{1}, RunConfig{Duration: 1})
		if !errors.Is(err, ode.ErrDimensionMismatch) {
			t.Errorf("error = %v, want dimension mismatch", err)
		}
	})

	t.Run("adaptive without embedding", func(t *testing.T) {
		sess := New(sys, integrators.NewERK(integrators.ClassicRK4()))
		if _, err := sess.Run(context.Background(), sys.DefaultState(), RunConfig{Duration: 1}); err == nil {
			t.Error("expected an error for adaptive stepping without an embedded estimate")
		}
	})

	t.Run("no entropy", func(t *testing.T) {
		sess := New(&plainSystem{}, integrators.NewERK(integrators.DormandPrince()))
		if err := sess.EnableRelaxation(relax.DefaultConfig()); err == nil {
			t.Error("expected an error enabling relaxation without an entropy functional")
		}
	})
}

type plainSystem struct{}

func (p *plainSystem) Derive(y ode.State, t float64) ode.State { return ode.State{-y[0]} }
func (p *plainSystem) Dim() int                                { return 1 }

func TestEnsemble_IndependentRuns(t *testing.T) {
	tols := []float64{1e-4, 1e-6, 1e-8}
	ens := NewEnsemble(len(tols), func(idx int) (*Session, ode.State, RunConfig, error) {
		sys := problems.NewConservedExpEntropy()
		sess := New(sys, integrators.NewERK(integrators.DormandPrince()))
		if err := sess.EnableRelaxation(relax.DefaultConfig()); err != nil {
			return nil, nil, RunConfig{}, err
		}
		cfg := RunConfig{Duration: 1.0, RelTol: tols[idx], AbsTol: tols[idx] * 1e-3}
		return sess, sys.DefaultState(), cfg, nil
	})

	results, err := ens.Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if res == nil || res.Steps == 0 {
			t.Fatalf("run %d produced no steps", i)
		}
	}
	if results[2].Steps < results[0].Steps {
		t.Errorf("tighter tolerance took fewer steps: %d vs %d", results[2].Steps, results[0].Steps)
	}
}

func TestEnsemble_BuildErrorWins(t *testing.T) {
	boom := errors.New("bad variant")
	ens := NewEnsemble(2, func(idx int) (*Session, ode.State, RunConfig, error) {
		if idx == 1 {
			return nil, nil, RunConfig{}, boom
		}
		sys := problems.NewOscillator()
		return New(sys, integrators.NewERK(integrators.DormandPrince())), sys.DefaultState(), RunConfig{Duration: 0.1}, nil
	})

	if _, err := ens.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want the build failure", err)
	}
}
