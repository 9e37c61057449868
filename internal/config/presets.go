package config

var Presets = map[string]map[string]*Config{
	"conserved_exp": {
		"reference": {
			Problem: "conserved_exp", Method: "dormand_prince", Duration: 5.0,
			RelTol: 1e-6, AbsTol: 1e-9,
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"fixed": {
			Problem: "conserved_exp", Method: "rk4", Duration: 5.0,
			H0: 0.01, FixedStep: true,
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"unrelaxed": {
			Problem: "conserved_exp", Method: "dormand_prince", Duration: 5.0,
			RelTol: 1e-6, AbsTol: 1e-9,
		},
	},
	"dissipated_exp": {
		"decay": {
			Problem: "dissipated_exp", Method: "bogacki_shampine", Duration: 5.0,
			RelTol: 1e-6, AbsTol: 1e-9,
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"brent": {
			Problem: "dissipated_exp", Method: "bogacki_shampine", Duration: 5.0,
			RelTol: 1e-6, AbsTol: 1e-9,
			Relaxation: RelaxationConfig{Enabled: true, Solver: "brent"},
		},
	},
	"oscillator": {
		"orbit": {
			Problem: "oscillator", Method: "dormand_prince", Duration: 31.4,
			RelTol: 1e-6, AbsTol: 1e-9, InitState: []float64{1.0, 0.0},
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"stiff": {
			Problem: "oscillator", Method: "dormand_prince", Duration: 10.0,
			RelTol: 1e-8, AbsTol: 1e-11, InitState: []float64{1.0, 0.0},
			Params:     map[string]float64{"omega": 10.0},
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
	},
	"pendulum": {
		"small": {
			Problem: "pendulum", Method: "dormand_prince", Duration: 20.0,
			RelTol: 1e-6, AbsTol: 1e-9, InitState: []float64{0.2, 0.0},
			Params:     map[string]float64{"damping": 0.0},
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"large": {
			Problem: "pendulum", Method: "dormand_prince", Duration: 20.0,
			RelTol: 1e-6, AbsTol: 1e-9, InitState: []float64{2.5, 0.0},
			Params:     map[string]float64{"damping": 0.0},
			Relaxation: RelaxationConfig{Enabled: true, Solver: "newton"},
		},
		"damped": {
			Problem: "pendulum", Method: "bogacki_shampine", Duration: 20.0,
			RelTol: 1e-6, AbsTol: 1e-9, InitState: []float64{2.5, 0.0},
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}
