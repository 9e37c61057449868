package relax

import (
	"fmt"
	"strings"
)

// SolverKind selects the scalar root solver used to compute the
// relaxation parameter each step.
type SolverKind int

const (
	// SolverNewton runs a fixed number of Newton-Raphson iterations.
	// Cheap when the residual is well conditioned near r=1.
	SolverNewton SolverKind = iota
	// SolverBrent brackets the root geometrically and refines it with
	// Brent's method. Costs more evaluations but converges whenever a
	// bracket exists.
	SolverBrent
)

func (k SolverKind) String() string {
	switch k {
	case SolverNewton:
		return "newton"
	case SolverBrent:
		return "brent"
	default:
		return fmt.Sprintf("solver(%d)", int(k))
	}
}

// ParseSolver maps a config/CLI name to a solver kind.
func ParseSolver(name string) (SolverKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "newton":
		return SolverNewton, nil
	case "brent":
		return SolverBrent, nil
	default:
		return SolverNewton, fmt.Errorf("%w: unknown solver %q", ErrInvalidConfig, name)
	}
}

// Documented defaults. Out-of-range values handed to setters reset the
// field to these instead of corrupting the session.
const (
	DefaultMaxIters   = 10
	DefaultResTol     = 4.0e-14
	DefaultRelTol     = 4.0e-14
	DefaultAbsTol     = 1.0e-14
	DefaultLowerBound = 0.8
	DefaultUpperBound = 1.2
	DefaultMaxFails   = 10
	DefaultEtaFail    = 0.25
)

// Config holds the tunables for one relaxation session. Fields are read
// by the solvers on every call, so mutate only through the Relaxer's
// setters and never concurrently with a solve.
type Config struct {
	Solver     SolverKind
	MaxIters   int     // nonlinear iteration budget per solve
	ResTol     float64 // |F(r)| below this is a root
	RelTol     float64 // relative part of the update-size test
	AbsTol     float64 // absolute part of the update-size test
	LowerBound float64 // acceptance window, 0 < lower < 1
	UpperBound float64 // acceptance window, upper > 1
	MaxFails   int     // relaxation failures tolerated per step
	EtaFail    float64 // step shrink factor after a failed attempt
}

func DefaultConfig() Config {
	return Config{
		Solver:     SolverNewton,
		MaxIters:   DefaultMaxIters,
		ResTol:     DefaultResTol,
		RelTol:     DefaultRelTol,
		AbsTol:     DefaultAbsTol,
		LowerBound: DefaultLowerBound,
		UpperBound: DefaultUpperBound,
		MaxFails:   DefaultMaxFails,
		EtaFail:    DefaultEtaFail,
	}
}

// sanitize resets every out-of-range tunable to its documented default.
// The acceptance window must satisfy 0 < lower < 1 < upper.
func sanitize(cfg Config) Config {
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = DefaultMaxIters
	}
	if cfg.ResTol <= 0 {
		cfg.ResTol = DefaultResTol
	}
	if cfg.RelTol <= 0 {
		cfg.RelTol = DefaultRelTol
	}
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = DefaultAbsTol
	}
	if cfg.LowerBound <= 0 || cfg.LowerBound >= 1 {
		cfg.LowerBound = DefaultLowerBound
	}
	if cfg.UpperBound <= 1 {
		cfg.UpperBound = DefaultUpperBound
	}
	if cfg.MaxFails <= 0 {
		cfg.MaxFails = DefaultMaxFails
	}
	if cfg.EtaFail <= 0 || cfg.EtaFail >= 1 {
		cfg.EtaFail = DefaultEtaFail
	}
	return cfg
}
