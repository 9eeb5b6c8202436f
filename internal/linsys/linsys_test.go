package linsys

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuildDefaults(t *testing.T) {
	sys, err := Build(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultDt, sys.Dt)
	assert.Equal(t, 1, sys.TicksPerPlot)
	assert.False(t, sys.Filtering())
	assert.Nil(t, sys.C)
	assert.Nil(t, sys.V)
	assert.Nil(t, sys.W)

	wantA := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	wantB := mat.NewDense(2, 1, []float64{0, 0.1})
	assert.True(t, mat.Equal(sys.A, wantA))
	assert.True(t, mat.Equal(sys.B, wantB))
}

func TestBuildStiffnessDamping(t *testing.T) {
	sys, err := Build(Options{Dt: 0.01, Stiffness: 4, Damping: 2})
	require.NoError(t, err)

	assert.InDelta(t, -0.04, sys.A.At(1, 0), 1e-15)
	assert.InDelta(t, 0.98, sys.A.At(1, 1), 1e-15)
	assert.Equal(t, 0.01, sys.A.At(0, 1))
	assert.Equal(t, 10, sys.TicksPerPlot)
}

func TestBuildAffine(t *testing.T) {
	sys, err := Build(Options{IsAffine: true})
	require.NoError(t, err)

	want := mat.NewDense(3, 3, []float64{
		1, 0.1, 0,
		0, 1, 0,
		0, 0, 1,
	})
	assert.True(t, mat.Equal(sys.A, want))
	r, c := sys.B.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 0.0, sys.B.At(2, 0))
}

func TestBuildFiltering(t *testing.T) {
	sys, err := Build(DefaultKalmanOptions())
	require.NoError(t, err)
	require.True(t, sys.Filtering())

	assert.True(t, mat.Equal(sys.C, mat.NewDense(2, 2, []float64{1, 0, 0, 1})))
	assert.InDelta(t, 0.01, sys.W.At(0, 0), 1e-15)
	assert.InDelta(t, 1e-4, sys.W.At(1, 1), 1e-15)
	assert.InDelta(t, 0.01, sys.V.At(0, 0), 1e-15)
	assert.InDelta(t, 1e-4, sys.V.At(1, 1), 1e-15)
}

func TestBuildSingleMeasurementChannel(t *testing.T) {
	opts := Options{PosProcessStddev: 0.1, VelProcessStddev: 0.01, VelMeasStddev: 0.5, IsAffine: true}
	sys, err := Build(opts)
	require.NoError(t, err)
	require.True(t, sys.Filtering())

	assert.True(t, mat.Equal(sys.C, mat.NewDense(1, 3, []float64{0, 1, 0})))
	assert.True(t, mat.Equal(sys.V, mat.NewDense(1, 1, []float64{0.25})))
	r, _ := sys.W.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 0.0, sys.W.At(2, 2))
}

func TestBuildNeedsBothProcessStddevs(t *testing.T) {
	sys, err := Build(Options{PosProcessStddev: 0.1, PosMeasStddev: 0.1})
	require.NoError(t, err)
	assert.False(t, sys.Filtering())
}

func TestBuildInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative dt", Options{Dt: -0.1}},
		{"negative ticks", Options{TicksPerPlot: -1}},
		{"negative stddev", Options{PosMeasStddev: -1}},
		{"negative init stddev", Options{PosInitStddev: Float(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestDefaultTicksPerPlot(t *testing.T) {
	tests := []struct {
		dt   float64
		want int
	}{
		{0.1, 1},
		{0.01, 10},
		{0.001, 100},
		{0.5, 1},
		{2.0, 1},
		{100, 1},
	}

	for _, tt := range tests {
		if got := DefaultTicksPerPlot(tt.dt); got != tt.want {
			t.Errorf("DefaultTicksPerPlot(%v) = %d, want %d", tt.dt, got, tt.want)
		}
	}
}

func TestInitState(t *testing.T) {
	sys, _ := Build(Options{})
	st := InitState(0.5, -1, sys, Options{})

	assert.Equal(t, 2, st.X.Len())
	assert.Equal(t, 0.5, st.Pos())
	assert.Equal(t, -1.0, st.Vel())
	assert.Nil(t, st.Mu)
	assert.Nil(t, st.P)
}

func TestInitStateFiltering(t *testing.T) {
	opts := DefaultKalmanOptions()
	opts.PosInitStddev = nil
	sys, _ := Build(opts)
	st := InitState(1, 2, sys, opts)

	require.NotNil(t, st.Mu)
	require.NotNil(t, st.P)
	assert.True(t, mat.Equal(st.X, st.Mu))
	assert.InDelta(t, 0.01, st.P.At(0, 0), 1e-15)
	assert.InDelta(t, 1e-6, st.P.At(1, 1), 1e-18)

	st.Mu.SetVec(0, 9)
	assert.Equal(t, 1.0, st.X.AtVec(0), "mu must not alias x")
}

func TestInitStateAffine(t *testing.T) {
	opts := DefaultKalmanOptions()
	opts.IsAffine = true
	sys, _ := Build(opts)
	st := InitState(1, 2, sys, opts)

	assert.Equal(t, 3, st.X.Len())
	assert.Equal(t, 1.0, st.X.AtVec(2))
	r, _ := st.P.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 0.0, st.P.At(2, 2))
}

func TestValidate(t *testing.T) {
	zero := ControllerFunc(func(float64, *System, *State) float64 { return 0 })

	base := func() (*System, State) {
		sys, _ := Build(DefaultKalmanOptions())
		sys.SetController(zero)
		return sys, InitState(0, 0, sys, DefaultKalmanOptions())
	}

	sys, st := base()
	require.NoError(t, Validate(sys, st))

	tests := []struct {
		name   string
		mutate func(*System, *State)
		want   error
	}{
		{"partial filter", func(s *System, _ *State) { s.V = nil }, ErrPartialFilter},
		{"short x", func(_ *System, st *State) { st.X = mat.NewVecDense(1, []float64{0}) }, ErrDimensionMismatch},
		{"missing P", func(_ *System, st *State) { st.P = nil }, ErrDimensionMismatch},
		{"no law", func(s *System, _ *State) { s.Law = ControlLaw{} }, ErrNoControlLaw},
		{"bad gain", func(s *System, _ *State) { s.SetGain(mat.NewDense(1, 3, nil)) }, ErrDimensionMismatch},
		{"single channel", func(s *System, _ *State) {
			s.C = mat.NewDense(1, 2, []float64{1, 0})
			s.V = mat.NewDense(1, 1, []float64{0.01})
		}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, st := base()
			tt.mutate(sys, &st)
			err := Validate(sys, st)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestControlLawResolve(t *testing.T) {
	k := mat.NewDense(1, 2, []float64{2, 3})
	law := StaticGain(k)
	k.Set(0, 0, 100)

	st := &State{
		X:  mat.NewVecDense(2, []float64{1, 1}),
		Mu: mat.NewVecDense(2, []float64{0, 1}),
	}

	fn, err := law.Resolve(false)
	require.NoError(t, err)
	assert.Equal(t, -5.0, fn(0, nil, st), "gain acts on x without a filter")

	fn, err = law.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, -3.0, fn(0, nil, st), "gain acts on mu with a filter")

	_, err = ControlLaw{}.Resolve(false)
	assert.ErrorIs(t, err, ErrNoControlLaw)
}

func TestSetGainOverridesController(t *testing.T) {
	sys, _ := Build(Options{})
	sys.SetController(ControllerFunc(func(float64, *System, *State) float64 { return 1 }))
	sys.SetGain(mat.NewDense(1, 2, []float64{1, 1}))

	assert.Nil(t, sys.Law.Controller())
	assert.NotNil(t, sys.Law.Gain())
}

func TestSystemClone(t *testing.T) {
	sys, _ := Build(DefaultKalmanOptions())
	c := sys.Clone()
	c.A.Set(0, 0, 42)
	c.V.Set(0, 0, 42)

	assert.Equal(t, 1.0, sys.A.At(0, 0))
	assert.InDelta(t, 0.01, sys.V.At(0, 0), 1e-15)
}

func TestOptionsFromMap(t *testing.T) {
	o := OptionsFromMap(map[string]float64{
		"dt":              0.01,
		"ticks_per_plot":  9.6,
		"is_affine":       1,
		"pos_init_stddev": 0,
		"unknown":         5,
	})

	assert.Equal(t, 0.01, o.Dt)
	assert.Equal(t, 10, o.TicksPerPlot)
	assert.True(t, o.IsAffine)
	require.NotNil(t, o.PosInitStddev)
	assert.Equal(t, 0.0, *o.PosInitStddev)
	assert.Nil(t, o.VelInitStddev)
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Tick: 3, Time: 0.3, Wrapped: ErrSingularInnovation}
	assert.Equal(t, "tick 3 (t=0.3000): linsys: innovation covariance is singular", err.Error())
	assert.ErrorIs(t, err, ErrSingularInnovation)
}
