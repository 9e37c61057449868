package relax

import (
	"errors"
	"testing"
)

func TestParseSolver(t *testing.T) {
	cases := []struct {
		in      string
		want    SolverKind
		wantErr bool
	}{
		{"newton", SolverNewton, false},
		{"NEWTON", SolverNewton, false},
		{" brent ", SolverBrent, false},
		{"Brent", SolverBrent, false},
		{"bisect", SolverNewton, true},
		{"", SolverNewton, true},
	}
	for _, tc := range cases {
		got, err := ParseSolver(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseSolver(%q) error = %v, want invalid config", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSolver(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSolver(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSolverKind_String(t *testing.T) {
	if s := SolverNewton.String(); s != "newton" {
		t.Errorf("SolverNewton.String() = %q", s)
	}
	if s := SolverBrent.String(); s != "brent" {
		t.Errorf("SolverBrent.String() = %q", s)
	}
	if s := SolverKind(7).String(); s != "solver(7)" {
		t.Errorf("SolverKind(7).String() = %q", s)
	}
}

func TestDefaultConfig_IsStable(t *testing.T) {
	if got := sanitize(DefaultConfig()); got != DefaultConfig() {
		t.Errorf("sanitize changed the defaults: %+v", got)
	}
}

func TestSanitize_ResetsInvalidFields(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Config)
		check func(Config) bool
	}{
		{"max iters", func(c *Config) { c.MaxIters = -5 }, func(c Config) bool { return c.MaxIters == DefaultMaxIters }},
		{"res tol", func(c *Config) { c.ResTol = 0 }, func(c Config) bool { return c.ResTol == DefaultResTol }},
		{"rel tol", func(c *Config) { c.RelTol = -1 }, func(c Config) bool { return c.RelTol == DefaultRelTol }},
		{"abs tol", func(c *Config) { c.AbsTol = 0 }, func(c Config) bool { return c.AbsTol == DefaultAbsTol }},
		{"lower bound zero", func(c *Config) { c.LowerBound = 0 }, func(c Config) bool { return c.LowerBound == DefaultLowerBound }},
		{"lower bound above one", func(c *Config) { c.LowerBound = 1.1 }, func(c Config) bool { return c.LowerBound == DefaultLowerBound }},
		{"upper bound below one", func(c *Config) { c.UpperBound = 0.9 }, func(c Config) bool { return c.UpperBound == DefaultUpperBound }},
		{"max fails", func(c *Config) { c.MaxFails = 0 }, func(c Config) bool { return c.MaxFails == DefaultMaxFails }},
		{"eta fail one", func(c *Config) { c.EtaFail = 1 }, func(c Config) bool { return c.EtaFail == DefaultEtaFail }},
		{"eta fail negative", func(c *Config) { c.EtaFail = -0.25 }, func(c Config) bool { return c.EtaFail == DefaultEtaFail }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mut(&cfg)
			got := sanitize(cfg)
			if !tc.check(got) {
				t.Errorf("field not reset: %+v", got)
			}
		})
	}
}

func TestSanitize_KeepsValidFields(t *testing.T) {
	cfg := Config{
		Solver:     SolverBrent,
		MaxIters:   30,
		ResTol:     1e-12,
		RelTol:     1e-10,
		AbsTol:     1e-13,
		LowerBound: 0.5,
		UpperBound: 1.5,
		MaxFails:   5,
		EtaFail:    0.5,
	}
	if got := sanitize(cfg); got != cfg {
		t.Errorf("sanitize changed valid config: %+v", got)
	}
}
