package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/rrk/internal/config"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
	"github.com/san-kum/rrk/internal/sim"
)

type Config struct {
	Problem   string
	Method    string
	InitState []float64
	Params    map[string]float64
	Duration  float64
	H0        float64
	MinStep   float64
	MaxStep   float64
	RelTol    float64
	AbsTol    float64
	MaxSteps  int
	FixedStep bool

	Relax    bool
	RelaxCfg relax.Config
}

// FromConfig maps a loaded file configuration onto an experiment
// configuration. An empty solver name falls back to Newton.
func FromConfig(c *config.Config) (Config, error) {
	cfg := Config{
		Problem:   c.Problem,
		Method:    c.Method,
		InitState: c.InitState,
		Params:    c.Params,
		Duration:  c.Duration,
		H0:        c.H0,
		MinStep:   c.MinStep,
		MaxStep:   c.MaxStep,
		RelTol:    c.RelTol,
		AbsTol:    c.AbsTol,
		MaxSteps:  c.MaxSteps,
		FixedStep: c.FixedStep,
		Relax:     c.Relaxation.Enabled,
	}

	kind := relax.SolverNewton
	if c.Relaxation.Solver != "" {
		var err error
		kind, err = relax.ParseSolver(c.Relaxation.Solver)
		if err != nil {
			return Config{}, err
		}
	}
	cfg.RelaxCfg = relax.Config{
		Solver:     kind,
		MaxIters:   c.Relaxation.MaxIters,
		ResTol:     c.Relaxation.ResTol,
		RelTol:     c.Relaxation.RelTol,
		AbsTol:     c.Relaxation.AbsTol,
		LowerBound: c.Relaxation.LowerBound,
		UpperBound: c.Relaxation.UpperBound,
		MaxFails:   c.Relaxation.MaxFails,
		EtaFail:    c.Relaxation.EtaFail,
	}

	return cfg, nil
}

// Experiment assembles one problem, method and session from names and
// runs it.
type Experiment struct {
	cfg     Config
	reg     *Registry
	sys     ode.System
	session *sim.Session
	init    ode.State
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg, reg: NewRegistry()}
}

func (e *Experiment) Setup() error {
	sys, err := e.reg.GetProblem(e.cfg.Problem)
	if err != nil {
		return err
	}
	if len(e.cfg.Params) > 0 {
		c, ok := sys.(ode.Configurable)
		if !ok {
			return fmt.Errorf("problem %s takes no parameters", e.cfg.Problem)
		}
		for name, value := range e.cfg.Params {
			if err := c.SetParam(name, value); err != nil {
				return err
			}
		}
	}

	erk, err := e.reg.GetMethod(e.cfg.Method)
	if err != nil {
		return err
	}

	session := sim.New(sys, erk)
	for _, m := range e.reg.DefaultMetrics(sys) {
		session.AddMetric(m)
	}
	if e.cfg.Relax {
		if err := session.EnableRelaxation(e.cfg.RelaxCfg); err != nil {
			return err
		}
	}

	init := ode.State(e.cfg.InitState)
	if len(init) == 0 {
		ds, ok := sys.(interface{ DefaultState() ode.State })
		if !ok {
			return fmt.Errorf("problem %s needs an explicit initial state", e.cfg.Problem)
		}
		init = ds.DefaultState()
	}

	e.sys = sys
	e.session = session
	e.init = init.Clone()
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.session == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	return e.session.Run(ctx, e.init, e.runConfig())
}

func (e *Experiment) runConfig() sim.RunConfig {
	return sim.RunConfig{
		Duration:  e.cfg.Duration,
		H0:        e.cfg.H0,
		MinStep:   e.cfg.MinStep,
		MaxStep:   e.cfg.MaxStep,
		RelTol:    e.cfg.RelTol,
		AbsTol:    e.cfg.AbsTol,
		MaxSteps:  e.cfg.MaxSteps,
		FixedStep: e.cfg.FixedStep,
	}
}

// Session returns the underlying session for adding observers.
func (e *Experiment) Session() *sim.Session {
	return e.session
}

// System returns the assembled problem, nil before Setup.
func (e *Experiment) System() ode.System {
	return e.sys
}
