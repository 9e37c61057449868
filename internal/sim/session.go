package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/rrk/internal/integrators"
	"github.com/san-kum/rrk/internal/metrics"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
)

// Step controller constants shared by accept and reject paths.
const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

// RunConfig controls one integration from t=0 to t=Duration. Zero
// values pick documented defaults; only Duration is mandatory.
type RunConfig struct {
	Duration float64
	H0       float64 // initial step, default Duration/100
	MinStep  float64 // 0 disables the lower clamp
	MaxStep  float64 // default Duration
	RelTol   float64 // default 1e-6
	AbsTol   float64 // default 1e-9
	MaxSteps int     // attempt budget, default 1000000

	FixedStep bool // take every step at H0, no error control
}

// Result collects the trajectory and the work counters of one run.
// Params holds the relaxation parameter of each accepted step, 1 when
// relaxation is disabled.
type Result struct {
	States []ode.State
	Times  []float64
	Params []float64

	Steps      int // accepted steps
	ErrRejects int // error-test rejections
	FnEvals    int64

	RelaxStats relax.Stats
	Metrics    map[string]float64
}

// StepFunc receives each accepted state. Returning false stops the run
// early without error.
type StepFunc func(y ode.State, t, param float64) bool

// Session drives one stepper over one system, optionally coupling a
// relaxation layer that rescales every accepted step so the system's
// entropy follows its exact balance law. Sessions are NOT safe for
// concurrent use; see Ensemble for parallel runs.
type Session struct {
	sys     ode.System
	erk     *integrators.ERK
	relaxer *relax.Relaxer
	metrics []metrics.Metric
	log     *slog.Logger
	expo    float64
}

func New(sys ode.System, erk *integrators.ERK) *Session {
	tab := erk.Tableau()
	order := tab.Order
	if tab.Adaptive() {
		order = tab.EmbeddedOrder
	}
	return &Session{
		sys:  sys,
		erk:  erk,
		log:  slog.Default(),
		expo: 1.0 / float64(order+1),
	}
}

func (s *Session) AddMetric(m metrics.Metric) {
	s.metrics = append(s.metrics, m)
}

func (s *Session) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// EnableRelaxation wires a relaxation layer over the stepper and the
// system's entropy functional. Fails when the system exposes none.
func (s *Session) EnableRelaxation(cfg relax.Config) error {
	ent, ok := s.sys.(ode.Entropy)
	if !ok {
		return fmt.Errorf("sim: system %T exposes no entropy functional", s.sys)
	}
	rx, err := relax.New(s.erk, ent.Entropy, ent.EntropyJac, cfg)
	if err != nil {
		return err
	}
	s.relaxer = rx
	return nil
}

// Relaxing reports whether a relaxation layer is attached.
func (s *Session) Relaxing() bool { return s.relaxer != nil }

func (s *Session) Run(ctx context.Context, y0 ode.State, cfg RunConfig) (*Result, error) {
	return s.run(ctx, y0, cfg, nil)
}

// RunWithCallback behaves like Run and additionally streams every
// accepted state to cb.
func (s *Session) RunWithCallback(ctx context.Context, y0 ode.State, cfg RunConfig, cb StepFunc) (*Result, error) {
	return s.run(ctx, y0, cfg, cb)
}

func (s *Session) run(ctx context.Context, y0 ode.State, cfg RunConfig, cb StepFunc) (*Result, error) {
	cfg, err := s.prepare(y0, cfg)
	if err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	y := y0.Clone()
	t := 0.0
	h := cfg.H0

	res := &Result{
		States:  []ode.State{y.Clone()},
		Times:   []float64{0},
		Params:  make([]float64, 0, 64),
		Metrics: make(map[string]float64),
	}
	fnStart := s.erk.FnEvals()
	for _, m := range s.metrics {
		m.Observe(y, t)
	}

	fails := 0    // relaxation failures charged to the current step
	attempts := 0 // total step attempts, bounds the whole run

	for cfg.Duration-t > 1e-12*cfg.Duration {
		select {
		case <-ctx.Done():
			s.finish(res, fnStart)
			return res, ctx.Err()
		default:
		}

		attempts++
		if attempts > cfg.MaxSteps {
			s.finish(res, fnStart)
			return res, fmt.Errorf("%w: %d attempts by t=%g", ode.ErrTooManySteps, cfg.MaxSteps, t)
		}

		if h > cfg.Duration-t {
			h = cfg.Duration - t
		}
		atMin := cfg.MinStep > 0 && h <= cfg.MinStep

		ycur, enorm := s.erk.Step(s.sys, y, t, h, cfg.RelTol, cfg.AbsTol)

		if !ycur.IsValid() {
			if cfg.FixedStep || atMin {
				s.finish(res, fnStart)
				return res, fmt.Errorf("%w: non-finite state at t=%g, h=%g", ode.ErrInvalidState, t, h)
			}
			res.ErrRejects++
			h = s.clampStep(h*0.25, cfg)
			s.log.Debug("step rejected", "reason", "invalid state", "t", t, "h", h)
			continue
		}

		if !cfg.FixedStep && enorm > 1 {
			res.ErrRejects++
			h = s.nextStep(h, enorm, cfg)
			s.log.Debug("step rejected", "reason", "error test", "t", t, "enorm", enorm, "h", h)
			continue
		}

		param := 1.0
		hUsed := h
		if s.relaxer != nil {
			att := relax.Attempt{
				Yn:        y,
				Ycur:      ycur,
				H:         h,
				ErrNorm:   enorm,
				Fails:     fails,
				FixedStep: cfg.FixedStep,
				AtMinStep: atMin,
			}
			out := s.relaxer.Relax(&att)
			switch out.Verdict {
			case relax.Retry:
				fails = out.Fails
				h = s.clampStep(h*out.Eta, cfg)
				s.log.Warn("relaxation retry", "t", t, "fails", fails, "h", h, "cause", out.Err)
				continue
			case relax.Fatal:
				s.finish(res, fnStart)
				return res, out.Err
			default:
				param = out.Param
				hUsed = out.H
				enorm = out.ErrNorm
			}
		}

		y = ycur
		t += hUsed
		fails = 0
		res.Steps++
		res.States = append(res.States, y.Clone())
		res.Times = append(res.Times, t)
		res.Params = append(res.Params, param)
		for _, m := range s.metrics {
			m.Observe(y, t)
		}
		s.log.Debug("step accepted", "t", t, "h", hUsed, "param", param)

		if cb != nil && !cb(y, t, param) {
			break
		}

		if !cfg.FixedStep {
			h = s.nextStep(hUsed, enorm, cfg)
		}
	}

	s.finish(res, fnStart)
	s.log.Info("run complete", "steps", res.Steps, "rejects", res.ErrRejects,
		"fn_evals", res.FnEvals, "t", t)
	return res, nil
}

func (s *Session) finish(res *Result, fnStart int64) {
	res.FnEvals = s.erk.FnEvals() - fnStart
	if s.relaxer != nil {
		res.RelaxStats = s.relaxer.Stats()
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
}

func (s *Session) prepare(y0 ode.State, cfg RunConfig) (RunConfig, error) {
	if len(y0) != s.sys.Dim() {
		return cfg, fmt.Errorf("%w: state has %d entries, system wants %d",
			ode.ErrDimensionMismatch, len(y0), s.sys.Dim())
	}
	if cfg.Duration <= 0 {
		return cfg, fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if !cfg.FixedStep && !s.erk.Adaptive() {
		return cfg, fmt.Errorf("method %s has no error estimate; set FixedStep", s.erk.Name())
	}

	if cfg.H0 <= 0 {
		cfg.H0 = cfg.Duration / 100
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = cfg.Duration
	}
	if cfg.H0 > cfg.MaxStep {
		cfg.H0 = cfg.MaxStep
	}
	if cfg.MinStep < 0 {
		cfg.MinStep = 0
	}
	if cfg.RelTol <= 0 {
		cfg.RelTol = 1e-6
	}
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = 1e-9
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 1000000
	}
	return cfg, nil
}

// nextStep is the standard embedded-pair controller: shrink or grow by
// the error norm raised to -1/(p+1), hedged by a safety factor and
// clamped so one step never jumps more than an order of magnitude.
func (s *Session) nextStep(h, enorm float64, cfg RunConfig) float64 {
	var scale float64
	if enorm <= 0 {
		scale = maxScale
	} else {
		scale = safety * math.Pow(enorm, -s.expo)
		if scale < minScale {
			scale = minScale
		}
		if scale > maxScale {
			scale = maxScale
		}
	}
	return s.clampStep(h*scale, cfg)
}

func (s *Session) clampStep(h float64, cfg RunConfig) float64 {
	if h > cfg.MaxStep {
		h = cfg.MaxStep
	}
	if cfg.MinStep > 0 && h < cfg.MinStep {
		h = cfg.MinStep
	}
	return h
}
