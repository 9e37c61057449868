package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDuration = 10.0
	DefaultH0       = 0.01
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-9
	DefaultMaxSteps = 1000000

	DefaultRelaxMaxIters = 10
	DefaultRelaxResTol   = 4.0e-14
	DefaultRelaxRelTol   = 4.0e-14
	DefaultRelaxAbsTol   = 1.0e-14
	DefaultLowerBound    = 0.8
	DefaultUpperBound    = 1.2
	DefaultMaxFails      = 10
	DefaultEtaFail       = 0.25
)

type Config struct {
	Problem    string             `yaml:"problem"`
	Method     string             `yaml:"method"`
	Duration   float64            `yaml:"duration"`
	H0         float64            `yaml:"h0"`
	MinStep    float64            `yaml:"min_step"`
	MaxStep    float64            `yaml:"max_step"`
	RelTol     float64            `yaml:"rtol"`
	AbsTol     float64            `yaml:"atol"`
	MaxSteps   int                `yaml:"max_steps"`
	FixedStep  bool               `yaml:"fixed_step"`
	InitState  []float64          `yaml:"init_state"`
	Params     map[string]float64 `yaml:"params"`
	Relaxation RelaxationConfig   `yaml:"relaxation"`
}

type RelaxationConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Solver     string  `yaml:"solver"`
	MaxIters   int     `yaml:"max_iters"`
	ResTol     float64 `yaml:"res_tol"`
	RelTol     float64 `yaml:"rel_tol"`
	AbsTol     float64 `yaml:"abs_tol"`
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`
	MaxFails   int     `yaml:"max_fails"`
	EtaFail    float64 `yaml:"eta_fail"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:  "conserved_exp",
		Method:   "dormand_prince",
		Duration: DefaultDuration,
		H0:       DefaultH0,
		RelTol:   DefaultRelTol,
		AbsTol:   DefaultAbsTol,
		MaxSteps: DefaultMaxSteps,
		Relaxation: RelaxationConfig{
			Enabled:    true,
			Solver:     "newton",
			MaxIters:   DefaultRelaxMaxIters,
			ResTol:     DefaultRelaxResTol,
			RelTol:     DefaultRelaxRelTol,
			AbsTol:     DefaultRelaxAbsTol,
			LowerBound: DefaultLowerBound,
			UpperBound: DefaultUpperBound,
			MaxFails:   DefaultMaxFails,
			EtaFail:    DefaultEtaFail,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
