package metrics

import (
	"math"

	"github.com/san-kum/rrk/internal/ode"
)

// SolutionError tracks the worst componentwise deviation from a known
// exact solution.
type SolutionError struct {
	name   string
	exact  func(t float64) ode.State
	maxErr float64
}

func NewSolutionError(exact func(t float64) ode.State) *SolutionError {
	return &SolutionError{
		name:  "solution_error",
		exact: exact,
	}
}

func (s *SolutionError) Name() string { return s.name }

func (s *SolutionError) Observe(y ode.State, t float64) {
	ref := s.exact(t)
	for i := range y {
		if i >= len(ref) {
			break
		}
		s.maxErr = math.Max(s.maxErr, math.Abs(y[i]-ref[i]))
	}
}

func (s *SolutionError) Value() float64 {
	return s.maxErr
}

func (s *SolutionError) Reset() {
	s.maxErr = 0
}
