package metrics

import (
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// EntropyDrift tracks the worst relative deviation of the entropy from
// its value at the first observed state. For a conserved functional
// under relaxation this sits at rounding level; without relaxation it
// grows at the truncation order.
type EntropyDrift struct {
	name     string
	ent      ode.Entropy
	initial  float64
	maxDrift float64
	samples  int
}

func NewEntropyDrift(ent ode.Entropy) *EntropyDrift {
	return &EntropyDrift{
		name: "entropy_drift",
		ent:  ent,
	}
}

func (e *EntropyDrift) Name() string { return e.name }

func (e *EntropyDrift) Observe(y ode.State, t float64) {
	val, err := e.ent.Entropy(y)
	if err != nil {
		return
	}

	if e.samples == 0 {
		e.initial = val
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(val-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EntropyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EntropyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// EntropyFinalError records the absolute entropy change between the
// first and the most recent observed state. Meaningful for conserved
// functionals, where it should vanish.
type EntropyFinalError struct {
	name    string
	ent     ode.Entropy
	initial float64
	current float64
	samples int
}

func NewEntropyFinalError(ent ode.Entropy) *EntropyFinalError {
	return &EntropyFinalError{
		name: "entropy_final_error",
		ent:  ent,
	}
}

func (e *EntropyFinalError) Name() string { return e.name }

func (e *EntropyFinalError) Observe(y ode.State, t float64) {
	val, err := e.ent.Entropy(y)
	if err != nil {
		return
	}
	if e.samples == 0 {
		e.initial = val
	}
	e.current = val
	e.samples++
}

func (e *EntropyFinalError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Abs(e.current - e.initial)
}

func (e *EntropyFinalError) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}
