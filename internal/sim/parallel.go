package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/linsim/internal/linsys"
	"golang.org/x/sync/errgroup"
)

// SetupFunc builds a fresh system and initial state for one ensemble member.
// Each call must return its own controller so stateful laws are not shared.
type SetupFunc func() (*linsys.System, linsys.State, error)

// Ensemble runs the same setup under consecutive seeds in parallel.
type Ensemble struct {
	setup     SetupFunc
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(setup SetupFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{setup: setup, numRuns: numRuns, seedStart: seedStart, workers: runtime.GOMAXPROCS(0)}
}

// WithMetrics installs a factory called once per member.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

// WithWorkers bounds how many members run at once. n < 1 means no bound.
func (e *Ensemble) WithWorkers(n int) *Ensemble {
	e.workers = n
	return e
}

// Run returns one result per seed, in seed order. The first failure cancels
// the members that have not finished.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i := 0; i < e.numRuns; i++ {
		i := i
		seed := e.seedStart + int64(i)
		g.Go(func() error {
			sys, init, err := e.setup()
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			member := New(sys)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					member.AddMetric(m)
				}
			}

			memberCfg := cfg
			memberCfg.Seed = seed
			r, err := member.Run(ctx, init, memberCfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MeanFinalPosition averages the final true position over results.
func MeanFinalPosition(results []*Result) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Final.Pos()
	}
	return sum / float64(len(results))
}
