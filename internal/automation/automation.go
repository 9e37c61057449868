// Package automation runs scripted batches of integrations: scenario
// files, parameter sweeps and Monte Carlo perturbation studies.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rrk/internal/config"
	"github.com/san-kum/rrk/internal/experiment"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
	"github.com/san-kum/rrk/internal/sim"
	"github.com/san-kum/rrk/internal/store"
)

// Scenario is a scripted sequence of runs loaded from YAML.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun describes one run of a scenario. Zero numeric fields
// inherit the configuration defaults; relaxation stays off unless
// Relax is set.
type ScenarioRun struct {
	Problem   string             `yaml:"problem"`
	Method    string             `yaml:"method"`
	Duration  float64            `yaml:"duration"`
	H0        float64            `yaml:"h0"`
	FixedStep bool               `yaml:"fixed_step"`
	InitState []float64          `yaml:"init_state"`
	Params    map[string]float64 `yaml:"params"`
	Relax     bool               `yaml:"relax"`
	Solver    string             `yaml:"solver"`
	Save      bool               `yaml:"save"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}
	if len(sc.Runs) == 0 {
		return nil, fmt.Errorf("automation: scenario %s has no runs", path)
	}
	return &sc, nil
}

// RunOutcome pairs one scenario run with its result. RunID is set when
// the run was saved.
type RunOutcome struct {
	Problem string
	RunID   string
	Result  *sim.Result
}

func (r ScenarioRun) toExperiment() (experiment.Config, error) {
	base := config.DefaultConfig()
	base.Problem = r.Problem
	if r.Method != "" {
		base.Method = r.Method
	}
	if r.Duration > 0 {
		base.Duration = r.Duration
	}
	if r.H0 > 0 {
		base.H0 = r.H0
	}
	base.FixedStep = r.FixedStep
	if len(r.InitState) > 0 {
		base.InitState = r.InitState
	}
	if len(r.Params) > 0 {
		base.Params = r.Params
	}
	base.Relaxation.Enabled = r.Relax
	if r.Solver != "" {
		base.Relaxation.Solver = r.Solver
	}
	return experiment.FromConfig(base)
}

// RunScenario executes each run in order. st may be nil when no run
// asks to be saved.
func RunScenario(ctx context.Context, sc *Scenario, st *store.Store) ([]RunOutcome, error) {
	outcomes := make([]RunOutcome, 0, len(sc.Runs))

	for i, run := range sc.Runs {
		slog.Info("scenario run", "scenario", sc.Name, "step", i+1, "of", len(sc.Runs), "problem", run.Problem)

		cfg, err := run.toExperiment()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		outcome := RunOutcome{Problem: run.Problem, Result: result}
		if run.Save {
			if st == nil {
				return outcomes, fmt.Errorf("run %d asks to be saved but no store is attached", i+1)
			}
			info := store.RunInfo{
				Problem:  cfg.Problem,
				Method:   cfg.Method,
				Relaxed:  cfg.Relax,
				Duration: cfg.Duration,
			}
			if cfg.Relax {
				info.Solver = cfg.RelaxCfg.Solver.String()
			}
			id, err := st.Save(info, result)
			if err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
			outcome.RunID = id
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// ParameterSweep varies one system parameter over a linear range and
// records how the integration responds.
type ParameterSweep struct {
	Problem  string
	Method   string
	Param    string
	Min, Max float64
	Steps    int
	Duration float64
	H0       float64
	Relax    bool
}

// SweepPoint is the outcome at one parameter value.
type SweepPoint struct {
	Value    float64
	Steps    int
	Drift    float64
	SolError float64
}

// RunSweep executes the sweep sequentially, one run per value.
func RunSweep(ctx context.Context, sw *ParameterSweep) ([]SweepPoint, error) {
	if sw.Steps < 2 {
		return nil, fmt.Errorf("automation: sweep needs at least 2 steps, got %d", sw.Steps)
	}
	if sw.Param == "" {
		return nil, fmt.Errorf("automation: sweep needs a parameter name")
	}

	points := make([]SweepPoint, 0, sw.Steps)
	delta := (sw.Max - sw.Min) / float64(sw.Steps-1)

	for i := 0; i < sw.Steps; i++ {
		value := sw.Min + float64(i)*delta

		cfg := experiment.Config{
			Problem:  sw.Problem,
			Method:   sw.Method,
			Params:   map[string]float64{sw.Param: value},
			Duration: sw.Duration,
			H0:       sw.H0,
			Relax:    sw.Relax,
			RelaxCfg: relax.DefaultConfig(),
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return points, fmt.Errorf("%s=%g: %w", sw.Param, value, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return points, fmt.Errorf("%s=%g: %w", sw.Param, value, err)
		}

		points = append(points, SweepPoint{
			Value:    value,
			Steps:    result.Steps,
			Drift:    result.Metrics["entropy_drift"],
			SolError: result.Metrics["solution_error"],
		})
		slog.Debug("sweep point", "param", sw.Param, "value", value, "steps", result.Steps)
	}

	return points, nil
}

// MonteCarlo perturbs the initial state and repeats the integration to
// probe how robust the entropy balance is across nearby trajectories.
type MonteCarlo struct {
	Problem      string
	Method       string
	BaseState    []float64 // empty uses the problem default
	Perturbation float64
	Trials       int
	Duration     float64
	H0           float64
	Seed         int64 // 0 seeds from the clock
	Relax        bool
}

// Trial is the outcome of one perturbed run.
type Trial struct {
	InitState ode.State
	Drift     float64
	Fatal     bool
}

// MonteCarloSummary aggregates all trials. Drift statistics cover the
// non-fatal trials only.
type MonteCarloSummary struct {
	Trials     []Trial
	MeanDrift  float64
	MaxDrift   float64
	FatalCount int
}

// RunMonteCarlo executes the trials sequentially so a fixed seed
// reproduces the exact perturbation sequence.
func RunMonteCarlo(ctx context.Context, mc *MonteCarlo) (*MonteCarloSummary, error) {
	if mc.Trials <= 0 {
		return nil, fmt.Errorf("automation: trials must be positive, got %d", mc.Trials)
	}
	if mc.Perturbation < 0 {
		return nil, fmt.Errorf("automation: perturbation must not be negative, got %g", mc.Perturbation)
	}

	reg := experiment.NewRegistry()
	sys, err := reg.GetProblem(mc.Problem)
	if err != nil {
		return nil, err
	}

	base := ode.State(mc.BaseState)
	if len(base) == 0 {
		ds, ok := sys.(interface{ DefaultState() ode.State })
		if !ok {
			return nil, fmt.Errorf("automation: problem %s needs an explicit base state", mc.Problem)
		}
		base = ds.DefaultState()
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	summary := &MonteCarloSummary{Trials: make([]Trial, 0, mc.Trials)}
	sumDrift := 0.0
	okTrials := 0

	for trial := 0; trial < mc.Trials; trial++ {
		init := make([]float64, len(base))
		for i, v := range base {
			init[i] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}

		cfg := experiment.Config{
			Problem:   mc.Problem,
			Method:    mc.Method,
			InitState: init,
			Duration:  mc.Duration,
			H0:        mc.H0,
			Relax:     mc.Relax,
			RelaxCfg:  relax.DefaultConfig(),
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			summary.Trials = append(summary.Trials, Trial{InitState: init, Fatal: true})
			summary.FatalCount++
			slog.Debug("trial failed", "trial", trial+1, "err", err)
			continue
		}

		drift := result.Metrics["entropy_drift"]
		summary.Trials = append(summary.Trials, Trial{InitState: init, Drift: drift})
		sumDrift += drift
		okTrials++
		if drift > summary.MaxDrift {
			summary.MaxDrift = drift
		}
	}

	if okTrials > 0 {
		summary.MeanDrift = sumDrift / float64(okTrials)
	}
	return summary, nil
}
