package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rrk/internal/integrators"
	"github.com/san-kum/rrk/internal/metrics"
	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/problems"
)

type Registry struct {
	problems map[string]func() ode.System
}

func NewRegistry() *Registry {
	r := &Registry{
		problems: make(map[string]func() ode.System),
	}

	r.problems["conserved_exp"] = func() ode.System { return problems.NewConservedExpEntropy() }
	r.problems["dissipated_exp"] = func() ode.System { return problems.NewDissipatedExpEntropy() }
	r.problems["oscillator"] = func() ode.System { return problems.NewOscillator() }
	r.problems["pendulum"] = func() ode.System { return problems.NewPendulum() }

	return r
}

func (r *Registry) GetProblem(name string) (ode.System, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMethod(name string) (*integrators.ERK, error) {
	tab, err := integrators.ByName(name)
	if err != nil {
		return nil, err
	}
	return integrators.NewERK(tab), nil
}

func (r *Registry) ListProblems() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListMethods() []string {
	return integrators.Names()
}

// DefaultMetrics picks the metrics a system can support: step-size
// spread always, entropy tracking when the system has an entropy
// functional, solution error when it has a closed-form solution.
func (r *Registry) DefaultMetrics(sys ode.System) []metrics.Metric {
	ms := []metrics.Metric{metrics.NewStepSizeSpread()}
	if ent, ok := sys.(ode.Entropy); ok {
		ms = append(ms, metrics.NewEntropyDrift(ent), metrics.NewEntropyFinalError(ent))
	}
	if ex, ok := sys.(interface{ Exact(t float64) ode.State }); ok {
		ms = append(ms, metrics.NewSolutionError(ex.Exact))
	}
	return ms
}
