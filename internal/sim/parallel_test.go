package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/linsim/internal/linsys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsemble(t *testing.T) {
	opts := linsys.DefaultKalmanOptions()
	setup := func() (*linsys.System, linsys.State, error) {
		sys, err := linsys.Build(opts)
		if err != nil {
			return nil, linsys.State{}, err
		}
		sys.SetController(constant(0))
		return sys, linsys.InitState(0, 0.1, sys, opts), nil
	}

	e := NewEnsemble(setup, 4, 10).WithMetrics(func() []Metric { return []Metric{&countMetric{}} })
	results, err := e.Run(context.Background(), Config{TFinal: 1})
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := map[float64]bool{}
	for _, r := range results {
		assert.Equal(t, 11.0, r.Metrics["count"])
		seen[r.Final.Pos()] = true
	}
	assert.Len(t, seen, 4, "each member draws its own noise")

	mean := MeanFinalPosition(results)
	assert.InDelta(t, 0.11, mean, 0.5)
}

func TestEnsembleSetupError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEnsemble(func() (*linsys.System, linsys.State, error) {
		return nil, linsys.State{}, boom
	}, 2, 0)

	_, err := e.Run(context.Background(), Config{TFinal: 1})
	assert.ErrorIs(t, err, boom)
}

func TestEnsembleWorkersDoNotChangeResults(t *testing.T) {
	opts := linsys.DefaultKalmanOptions()
	setup := func() (*linsys.System, linsys.State, error) {
		sys, err := linsys.Build(opts)
		if err != nil {
			return nil, linsys.State{}, err
		}
		sys.SetController(constant(0.5))
		return sys, linsys.InitState(0, 0, sys, opts), nil
	}

	serial, err := NewEnsemble(setup, 3, 7).WithWorkers(1).Run(context.Background(), Config{TFinal: 2})
	require.NoError(t, err)
	parallel, err := NewEnsemble(setup, 3, 7).WithWorkers(0).Run(context.Background(), Config{TFinal: 2})
	require.NoError(t, err)

	for i := range serial {
		assert.Equal(t, serial[i].Position.Values(), parallel[i].Position.Values(), "seed %d", 7+i)
	}
}
