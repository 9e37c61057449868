package metrics

import "github.com/san-kum/rrk/internal/ode"

// Metric observes accepted states during a run and reduces them to a
// single number.
type Metric interface {
	Name() string
	Observe(y ode.State, t float64)
	Value() float64
	Reset()
}
