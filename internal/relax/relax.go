package relax

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// Stats counts the work done by a relaxation session. Evaluation
// counters move only when the underlying oracle call succeeds, so a
// failed entropy evaluation leaves FnEvals where it was.
type Stats struct {
	FnEvals     int64 // successful entropy evaluations
	JacEvals    int64 // successful gradient evaluations
	SolverIters int64 // nonlinear solver iterations across all calls
	SolverFails int64 // solves that diverged or hit the iteration limit
	BoundFails  int64 // roots rejected by the acceptance window
	TotalFails  int64 // failed Relax calls, one tick per call
}

// Verdict is the orchestrator's ruling on one relaxation attempt.
type Verdict int

const (
	// Accepted means the parameter was found, passed the bounds check
	// and has been applied to the attempt's state.
	Accepted Verdict = iota
	// Retry means the attempt failed recoverably; the caller should
	// shrink the step by the outcome's Eta and redo it.
	Retry
	// Fatal means the step cannot be salvaged by shrinking.
	Fatal
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Retry:
		return "retry"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Attempt describes one completed integrator step awaiting relaxation.
// Yn is the solution at the start of the step and is never written.
// Ycur is the proposed solution and is overwritten in place when the
// attempt is accepted.
type Attempt struct {
	Yn      ode.State
	Ycur    ode.State
	H       float64 // step size that produced Ycur
	ErrNorm float64 // weighted local error estimate for Ycur
	Fails   int     // relaxation failures already charged to this step

	FixedStep bool // caller cannot change the step size
	AtMinStep bool // caller is already at the minimum step size
}

// Outcome reports the ruling plus the rescaled step quantities. H and
// ErrNorm equal the attempt's values scaled by the parameter on
// acceptance and pass through unchanged otherwise. Err is set for Retry
// and Fatal.
type Outcome struct {
	Verdict Verdict
	Param   float64 // accepted relaxation parameter
	H       float64
	ErrNorm float64
	Eta     float64 // step shrink factor, set on Retry
	Fails   int     // failures charged to the step so far
	Err     error
}

// DeltaEstimator supplies the entropy change predicted by the method
// that produced the step, typically from its retained stages. The
// returned count is the number of successful gradient evaluations
// spent, reported even when the estimate itself fails.
type DeltaEstimator interface {
	EstimateDeltaE(jac ode.EntropyJacFn, grad ode.State) (float64, int, error)
	Order() int
}

type rootSolver interface {
	solve(ev *evaluator, seed float64) (float64, error)
}

// Relaxer computes the relaxation parameter for completed integrator
// steps and rescales them so the entropy change of the numerical
// solution matches the estimate from the method's stages. One Relaxer
// serves one integration; it is not safe for concurrent use.
type Relaxer struct {
	cfg   Config
	fn    ode.EntropyFn
	jacFn ode.EntropyJacFn
	src   DeltaEstimator

	param float64 // last accepted parameter, seeds the next solve

	deltaY ode.State
	yRelax ode.State
	grad   ode.State

	stats  Stats
	solver rootSolver
}

// New builds a relaxer over the given estimator and entropy oracles.
// Missing oracles and unknown solver kinds are rejected here; numeric
// tunables outside their documented ranges are silently reset to the
// defaults.
func New(src DeltaEstimator, fn ode.EntropyFn, jacFn ode.EntropyJacFn, cfg Config) (*Relaxer, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil entropy change estimator", ErrInvalidConfig)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil entropy functional", ErrInvalidConfig)
	}
	if jacFn == nil {
		return nil, fmt.Errorf("%w: nil entropy gradient", ErrInvalidConfig)
	}

	rx := &Relaxer{
		cfg:   sanitize(cfg),
		fn:    fn,
		jacFn: jacFn,
		src:   src,
		param: 1.0,
	}
	if err := rx.setSolver(rx.cfg.Solver); err != nil {
		return nil, err
	}
	return rx, nil
}

func (rx *Relaxer) setSolver(kind SolverKind) error {
	switch kind {
	case SolverNewton:
		rx.solver = &newtonSolver{cfg: &rx.cfg}
	case SolverBrent:
		rx.solver = &brentSolver{cfg: &rx.cfg}
	default:
		return fmt.Errorf("%w: unknown solver %v", ErrInvalidConfig, kind)
	}
	rx.cfg.Solver = kind
	return nil
}

// SetSolver swaps the root solver used by subsequent calls.
func (rx *Relaxer) SetSolver(kind SolverKind) error {
	return rx.setSolver(kind)
}

// SetBounds replaces the acceptance window. Like every numeric setter
// here, out-of-range values reset the field to its default instead of
// poisoning later solves.
func (rx *Relaxer) SetBounds(lower, upper float64) {
	rx.cfg.LowerBound, rx.cfg.UpperBound = lower, upper
	rx.cfg = sanitize(rx.cfg)
}

// SetMaxIters replaces the per-solve iteration budget.
func (rx *Relaxer) SetMaxIters(n int) {
	rx.cfg.MaxIters = n
	rx.cfg = sanitize(rx.cfg)
}

// SetResTol replaces the residual tolerance.
func (rx *Relaxer) SetResTol(tol float64) {
	rx.cfg.ResTol = tol
	rx.cfg = sanitize(rx.cfg)
}

// SetTols replaces the relative and absolute parts of the update-size
// convergence test.
func (rx *Relaxer) SetTols(rel, abs float64) {
	rx.cfg.RelTol, rx.cfg.AbsTol = rel, abs
	rx.cfg = sanitize(rx.cfg)
}

// SetMaxFails replaces the per-step failure budget.
func (rx *Relaxer) SetMaxFails(n int) {
	rx.cfg.MaxFails = n
	rx.cfg = sanitize(rx.cfg)
}

// SetEtaFail replaces the step shrink factor applied after a failure.
func (rx *Relaxer) SetEtaFail(eta float64) {
	rx.cfg.EtaFail = eta
	rx.cfg = sanitize(rx.cfg)
}

// Config returns the active configuration after sanitizing.
func (rx *Relaxer) Config() Config {
	return rx.cfg
}

// Param returns the most recently accepted relaxation parameter.
func (rx *Relaxer) Param() float64 {
	return rx.param
}

// Stats returns a copy of the session counters.
func (rx *Relaxer) Stats() Stats {
	return rx.stats
}

// Relax computes and applies the relaxation parameter for one completed
// step. On acceptance the attempt's Ycur is replaced in place by the
// relaxed state yn + r*(ycur - yn) and the outcome carries the step
// size and error norm rescaled by r. On failure the outcome's verdict
// tells the caller whether shrinking the step and retrying can help.
func (rx *Relaxer) Relax(att *Attempt) Outcome {
	if len(att.Yn) != len(att.Ycur) {
		return rx.fail(att, fmt.Errorf("%w: yn has %d entries, ycur has %d",
			ode.ErrDimensionMismatch, len(att.Yn), len(att.Ycur)))
	}
	rx.ensureScratch(len(att.Yn))

	deltaE, gradEvals, err := rx.src.EstimateDeltaE(rx.jacFn, rx.grad)
	rx.stats.JacEvals += int64(gradEvals)
	if err != nil {
		return rx.fail(att, err)
	}

	ode.Sub(att.Ycur, att.Yn, rx.deltaY)

	eOld, err := rx.fn(att.Yn)
	if err != nil {
		return rx.fail(att, err)
	}
	rx.stats.FnEvals++

	ev := &evaluator{
		fn:     rx.fn,
		jacFn:  rx.jacFn,
		yn:     att.Yn,
		deltaY: rx.deltaY,
		yRelax: rx.yRelax,
		grad:   rx.grad,
		eOld:   eOld,
		deltaE: deltaE,
		stats:  &rx.stats,
	}

	root, err := rx.solver.solve(ev, rx.param)
	if err != nil {
		if errors.Is(err, ErrSolverDiverged) || errors.Is(err, ErrIterationLimit) {
			rx.stats.SolverFails++
		}
		return rx.fail(att, err)
	}

	if root < rx.cfg.LowerBound || root > rx.cfg.UpperBound {
		rx.stats.BoundFails++
		return rx.fail(att, fmt.Errorf("%w: r=%g outside [%g, %g]",
			ErrBoundViolation, root, rx.cfg.LowerBound, rx.cfg.UpperBound))
	}

	rx.param = root
	ode.LinearSum(root, att.Ycur, 1-root, att.Yn, att.Ycur)
	return Outcome{
		Verdict: Accepted,
		Param:   root,
		H:       att.H * root,
		ErrNorm: att.ErrNorm * math.Pow(root, float64(rx.src.Order())),
		Fails:   att.Fails,
	}
}

// fail applies the retry policy shared by every failure source. The
// total failure counter moves exactly once per failed call no matter
// where the solve died.
func (rx *Relaxer) fail(att *Attempt, cause error) Outcome {
	rx.stats.TotalFails++
	fails := att.Fails + 1

	if !recoverable(cause) {
		return rx.fatal(att, fails, cause)
	}
	if fails >= rx.cfg.MaxFails {
		return rx.fatal(att, fails, fmt.Errorf("%w after %d attempts: %v", ErrMaxFails, fails, cause))
	}
	if att.FixedStep || att.AtMinStep {
		return rx.fatal(att, fails, fmt.Errorf("cannot shrink step to recover: %w", cause))
	}
	return Outcome{
		Verdict: Retry,
		H:       att.H,
		ErrNorm: att.ErrNorm,
		Eta:     rx.cfg.EtaFail,
		Fails:   fails,
		Err:     cause,
	}
}

func recoverable(err error) bool {
	return errors.Is(err, ode.ErrRecoverable) ||
		errors.Is(err, ErrSolverDiverged) ||
		errors.Is(err, ErrIterationLimit) ||
		errors.Is(err, ErrBoundViolation)
}

// fatal stamps the terminal error with the session counters so the
// failure is diagnosable from a single log line.
func (rx *Relaxer) fatal(att *Attempt, fails int, cause error) Outcome {
	err := fmt.Errorf("%w [fn=%d jac=%d iters=%d solver_fails=%d bound_fails=%d total_fails=%d]",
		cause, rx.stats.FnEvals, rx.stats.JacEvals, rx.stats.SolverIters,
		rx.stats.SolverFails, rx.stats.BoundFails, rx.stats.TotalFails)
	return Outcome{
		Verdict: Fatal,
		H:       att.H,
		ErrNorm: att.ErrNorm,
		Fails:   fails,
		Err:     err,
	}
}

func (rx *Relaxer) ensureScratch(n int) {
	if len(rx.deltaY) != n {
		rx.deltaY = make(ode.State, n)
		rx.yRelax = make(ode.State, n)
		rx.grad = make(ode.State, n)
	}
}
