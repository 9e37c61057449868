package metrics

import (
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// StepSizeSpread reports the ratio between the largest and smallest
// accepted step, reconstructed from the observation times. A spread
// near one means the controller barely moved; a large spread usually
// marks repeated relaxation retries.
type StepSizeSpread struct {
	name    string
	prevT   float64
	minH    float64
	maxH    float64
	samples int
}

func NewStepSizeSpread() *StepSizeSpread {
	return &StepSizeSpread{
		name: "step_size_spread",
		minH: math.Inf(1),
	}
}

func (s *StepSizeSpread) Name() string { return s.name }

func (s *StepSizeSpread) Observe(y ode.State, t float64) {
	if s.samples > 0 {
		if h := t - s.prevT; h > 0 {
			s.minH = math.Min(s.minH, h)
			s.maxH = math.Max(s.maxH, h)
		}
	}
	s.prevT = t
	s.samples++
}

func (s *StepSizeSpread) Value() float64 {
	if s.maxH == 0 || math.IsInf(s.minH, 1) {
		return 1.0
	}
	return s.maxH / s.minH
}

func (s *StepSizeSpread) Reset() {
	s.prevT = 0
	s.minH = math.Inf(1)
	s.maxH = 0
	s.samples = 0
}
