package sim

import (
	"context"
	"sync"

	"github.com/san-kum/rrk/internal/ode"
)

// Ensemble runs independent sessions in parallel, one goroutine each.
// Sessions own mutable scratch state, so every run builds its own
// through the factory instead of sharing the base session.
type Ensemble struct {
	numRuns int
	build   func(idx int) (*Session, ode.State, RunConfig, error)
}

func NewEnsemble(numRuns int, build func(idx int) (*Session, ode.State, RunConfig, error)) *Ensemble {
	return &Ensemble{numRuns: numRuns, build: build}
}

// Run executes every session and returns their results in build order.
// The first build or run error wins; later results are discarded.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sess, y0, cfg, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = sess.Run(ctx, y0, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
