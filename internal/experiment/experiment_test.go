package experiment

import (
	"context"
	"testing"

	"github.com/san-kum/linsim/internal/config"
	"github.com/san-kum/linsim/internal/linalg"
	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg *config.Config) *sim.Result {
	t.Helper()
	e := New(cfg, nil)
	require.NoError(t, e.Setup())
	result, err := e.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestEveryScenarioRuns(t *testing.T) {
	reg := NewRegistry()
	for _, name := range reg.List() {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Scenario = name
			cfg.TFinal = 2
			result := run(t, cfg)
			assert.NotEmpty(t, result.Position.Samples)
			for _, m := range []string{"control_effort", "stability", "estimation_rms", "covariance_trace"} {
				assert.Contains(t, result.Metrics, m)
			}
		})
	}
}

func TestIceBlockPush(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Values = map[string]float64{"first_time": 1.0, "first_duration": 0.5}
	result := run(t, cfg)

	pushed := 0
	for _, p := range result.Force.Samples {
		if p.True == 1 {
			pushed++
			assert.GreaterOrEqual(t, p.T, 0.95)
			assert.LessOrEqual(t, p.T, 1.55)
		}
	}
	assert.Equal(t, 6, pushed)
	assert.InDelta(t, 0.1+6*0.1, result.Final.Vel(), 1e-9)
}

func TestFrictionSlowsDown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "friction"
	result := run(t, cfg)

	assert.Less(t, result.Final.Vel(), 0.1)
	assert.Greater(t, result.Final.Vel(), 0.0)
	assert.True(t, result.Force.Hidden)
	assert.False(t, result.Position.Hidden)

	sc, err := NewRegistry().Get("friction")
	require.NoError(t, err)
	assert.True(t, sc.HideForce)
}

func TestSpringyOscillates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "springy"
	cfg.Values = map[string]float64{"alpha": 4}
	result := run(t, cfg)

	crossed := false
	for _, p := range result.Position.Samples {
		if p.True < 0 {
			crossed = true
			break
		}
	}
	assert.True(t, crossed, "spring should pull the block through zero")

	// ticks_per_plot 10 at dt 0.001
	assert.InDelta(t, 0.01, result.Position.Samples[1].T, 1e-12)
}

func TestNoisyBlockFilters(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "noisy_block"
	result := run(t, cfg)

	assert.True(t, result.ErrorBars)
	require.NotNil(t, result.LFinal)
	assert.Greater(t, result.Metrics["covariance_trace"], 0.0)
}

func TestLQRBlockSettles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "lqr_block"
	cfg.TFinal = 20
	result := run(t, cfg)

	assert.InDelta(t, 0, result.Final.Pos(), 1e-3)
	assert.InDelta(t, 0, result.Final.Vel(), 1e-3)
	assert.Less(t, result.Force.Samples[0].True, 0.0, "gain pushes back toward the origin")
}

func TestLQRKalmanUsesEstimate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "lqr_kalman"
	result := run(t, cfg)

	assert.True(t, result.ErrorBars)
	require.NotNil(t, result.LFinal)
	assert.Less(t, result.Metrics["estimation_rms"], 1.0)
}

func TestResolve(t *testing.T) {
	sc, err := NewRegistry().Get("all_things")
	require.NoError(t, err)

	values, err := sc.Resolve(map[string]float64{"alpha2": 9})
	require.NoError(t, err)
	assert.Equal(t, 9.0, values["alpha2"])
	assert.Equal(t, 0.5, values["beta2"])

	_, err = sc.Resolve(map[string]float64{"alpha": 1})
	assert.Error(t, err)

	_, err = NewRegistry().Get("nope")
	assert.Error(t, err)
}

func TestAssembleOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "friction"
	cfg.System = &linsys.Options{Damping: 1, PosProcessStddev: 0.1, VelProcessStddev: 0.01, PosMeasStddev: 0.1, VelMeasStddev: 0.01}
	cfg.InitState = &config.InitStateConfig{Pos: 2, Vel: -1}
	cfg.Controller = &config.ControllerConfig{Type: config.ControllerConstant, Value: 0.25}

	sys, init, sc, err := Assemble(cfg, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "friction", sc.Name)
	assert.True(t, sys.Filtering())
	assert.Equal(t, 2.0, init.Pos())
	assert.Equal(t, -1.0, init.Mu.AtVec(1))
	assert.InDelta(t, 0.0101, linalg.Trace(init.P), 1e-12)
	assert.Equal(t, 0.25, sys.Law.Controller().Control(0, sys, &init))
}

func TestAssembleSystemOnly(t *testing.T) {
	cfg := &config.Config{System: &linsys.Options{}, TFinal: 1}

	sys, _, sc, err := Assemble(cfg, NewRegistry())
	require.NoError(t, err)
	assert.Nil(t, sc)

	_, err = sim.New(sys).Run(context.Background(), linsys.InitState(0, 0, sys, linsys.Options{}), sim.Config{TFinal: 1})
	assert.ErrorIs(t, err, linsys.ErrNoControlLaw)
}

func TestBuildLaw(t *testing.T) {
	sys, err := linsys.Build(linsys.Options{})
	require.NoError(t, err)

	for _, kind := range config.ControllerTypes() {
		cc := config.DefaultController(kind)
		if kind == config.ControllerGain {
			cc.K = []float64{1, 1}
		}
		law, err := BuildLaw(cc, sys)
		require.NoError(t, err, kind)
		assert.True(t, law.IsSet(), kind)
	}

	_, err = BuildLaw(&config.ControllerConfig{Type: "nope"}, sys)
	assert.Error(t, err)
}

func TestSetupUnknownMetric(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics = []string{"energy", "bogus"}
	assert.Error(t, New(cfg, nil).Setup())

	_, err := New(cfg, nil).Run(context.Background())
	assert.EqualError(t, err, "experiment not setup")
}

func TestStiffness(t *testing.T) {
	sys, err := linsys.Build(linsys.Options{Dt: 0.001, Stiffness: 3})
	require.NoError(t, err)
	assert.InDelta(t, 3, Stiffness(sys), 1e-9)
}
