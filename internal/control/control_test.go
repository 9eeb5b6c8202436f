package control

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func state(pos, vel float64) *linsys.State {
	return &linsys.State{X: mat.NewVecDense(2, []float64{pos, vel})}
}

func TestZero(t *testing.T) {
	if u := NewZero().Control(1, nil, state(5, 5)); u != 0 {
		t.Errorf("expected 0, got %f", u)
	}
}

func TestManual(t *testing.T) {
	m := NewManual(0.5)
	if u := m.Control(0, nil, state(0, 0)); u != 0.5 {
		t.Errorf("expected 0.5, got %f", u)
	}
	m.Set(-2)
	if u := m.Control(0, nil, state(0, 0)); u != -2 {
		t.Errorf("expected -2, got %f", u)
	}
}

func TestPulseWindow(t *testing.T) {
	p := NewPulse(1.0, 0.3, 0.1)

	tests := []struct {
		t    float64
		want float64
	}{
		{0.9, 0},
		{0.96, 1},
		{1.0, 1},
		{1.3, 1},
		{1.34, 1},
		{1.36, 0},
	}
	for _, tt := range tests {
		if got := p.Control(tt.t, nil, nil); got != tt.want {
			t.Errorf("Control(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestPulseOnIceBlock(t *testing.T) {
	sys, err := linsys.Build(linsys.Options{})
	require.NoError(t, err)
	sys.SetController(NewPulse(0, 0.3, sys.Dt))
	init := linsys.InitState(0, 0.1, sys, linsys.Options{})

	result, err := sim.New(sys).Run(context.Background(), init, sim.Config{TFinal: 1})
	require.NoError(t, err)

	active := 0
	for _, p := range result.Force.Samples {
		if p.True == 1 {
			active++
		}
	}
	assert.Equal(t, 4, active)
	assert.InDelta(t, 0.5, result.Final.Vel(), 1e-12)
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	if u := ctrl.Control(0, nil, state(1, 0)); u >= 0 {
		t.Error("PID should output negative control for positive error")
	}

	ctrl.Control(0.1, nil, state(0.5, 0))
	ctrl.Reset()
	if u := ctrl.Control(0.2, nil, state(1, 0)); u != -10 {
		t.Errorf("after reset expected pure proportional -10, got %f", u)
	}
}

func TestPIDUsesEstimateWhenFiltering(t *testing.T) {
	opts := linsys.DefaultKalmanOptions()
	sys, err := linsys.Build(opts)
	require.NoError(t, err)

	st := &linsys.State{
		X:  mat.NewVecDense(2, []float64{1, 0}),
		Mu: mat.NewVecDense(2, []float64{2, 0}),
	}
	if u := NewPID(1, 0, 0, 0).Control(0, sys, st); u != -2 {
		t.Errorf("expected -2 from the estimate, got %f", u)
	}
}

func TestPIDDerivativeOnVelocity(t *testing.T) {
	p := NewPID(0, 0, 2, 0)
	if u := p.Control(0, nil, state(0, 3)); u != -6 {
		t.Errorf("expected -Kd·vel = -6, got %f", u)
	}

	// moving the target changes only the proportional term
	p = NewPID(1, 0, 5, 0)
	p.Control(0, nil, state(0, 0))
	p.Target = 1
	if u := p.Control(0.1, nil, state(0, 0)); u != 1 {
		t.Errorf("expected no derivative kick, got %f", u)
	}
}

func TestPIDIntegral(t *testing.T) {
	p := NewPID(0, 1, 0, 1)
	p.Control(0, nil, state(0, 0))
	p.Control(0.5, nil, state(0, 0))
	if u := p.Control(1, nil, state(0, 0)); math.Abs(u-1) > 1e-12 {
		t.Errorf("expected integral 1 after 1s of unit error, got %f", u)
	}
}

func TestDAREScalar(t *testing.T) {
	one := mat.NewDense(1, 1, []float64{1})
	p, err := DARE(one, one, one, one)
	require.NoError(t, err)

	phi := (1 + math.Sqrt(5)) / 2
	assert.InDelta(t, phi, p.At(0, 0), 1e-9)

	k, err := Gain(one, one, one, one)
	require.NoError(t, err)
	assert.InDelta(t, phi/(1+phi), k.At(0, 0), 1e-9)
}

func TestGainStabilises(t *testing.T) {
	sys, err := linsys.Build(linsys.Options{})
	require.NoError(t, err)

	tests := []struct {
		name       string
		qPos, qVel float64
		r          float64
	}{
		{"balanced", 1, 1, 1},
		{"cheap control", 10, 1, 0.1},
		{"expensive control", 0.1, 0.1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Weights(2, tt.qPos, tt.qVel)
			r := Weights(1, tt.r)

			p, err := DARE(sys.A, sys.B, q, r)
			require.NoError(t, err)
			k, err := Gain(sys.A, sys.B, q, r)
			require.NoError(t, err)

			// residual of the Riccati equation
			var next mat.Dense
			var bk, closed mat.Dense
			bk.Mul(sys.B, k)
			closed.Sub(sys.A, &bk)
			next.Product(sys.A.T(), p, &closed)
			next.Add(&next, q)
			assert.True(t, mat.EqualApprox(&next, p, 1e-6), "P is not a fixed point")

			var eig mat.Eigen
			require.True(t, eig.Factorize(&closed, mat.EigenNone))
			for _, v := range eig.Values(nil) {
				mag := math.Hypot(real(v), imag(v))
				assert.Less(t, mag, 1.0, "closed loop pole outside unit circle")
			}
		})
	}
}

func TestLQRRegulates(t *testing.T) {
	sys, err := linsys.Build(linsys.Options{})
	require.NoError(t, err)

	lqr, err := DesignLQR(sys, Weights(2, 1, 1), Weights(1, 1))
	require.NoError(t, err)
	sys.Law = lqr.Law()
	require.NotNil(t, sys.Law.Gain())

	init := linsys.InitState(1, 0, sys, linsys.Options{})
	result, err := sim.New(sys).Run(context.Background(), init, sim.Config{TFinal: 20})
	require.NoError(t, err)

	assert.InDelta(t, 0, result.Final.Pos(), 1e-3)
	assert.InDelta(t, 0, result.Final.Vel(), 1e-3)
}

func TestLQRTarget(t *testing.T) {
	k := mat.NewDense(1, 2, []float64{1, 2})
	l := NewLQR(k, mat.NewVecDense(2, []float64{1, 0}))

	if u := l.Control(0, nil, state(1, 0)); u != 0 {
		t.Errorf("expected zero control at target, got %f", u)
	}
	if u := l.Control(0, nil, state(2, 1)); u != -3 {
		t.Errorf("expected -3, got %f", u)
	}
	assert.Nil(t, l.Law().Gain(), "targeted LQR runs as a callback")
}

func TestDAREDimensionMismatch(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	b := mat.NewDense(2, 1, []float64{0, 0.1})

	_, err := DARE(a, b, Weights(3, 1, 1, 1), Weights(1, 1))
	if !errors.Is(err, linsys.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDARENotConverged(t *testing.T) {
	// unstable and uncontrollable: P grows without bound
	a := mat.NewDense(2, 2, []float64{2, 0, 0, 1})
	b := mat.NewDense(2, 1, []float64{0, 1})

	_, err := DARE(a, b, Weights(2, 1, 1), Weights(1, 1))
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("expected ErrNotConverged, got %v", err)
	}
}
