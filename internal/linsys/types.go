package linsys

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Controller computes the scalar control input for one tick.
type Controller interface {
	Control(t float64, sys *System, st *State) float64
}

// ControllerFunc adapts a plain function to Controller.
type ControllerFunc func(t float64, sys *System, st *State) float64

func (f ControllerFunc) Control(t float64, sys *System, st *State) float64 {
	return f(t, sys, st)
}

// ControlLaw is either a static feedback gain K (u = -K·input) or a
// Controller callback. The zero value has neither.
type ControlLaw struct {
	gain       *mat.Dense
	controller Controller
}

// StaticGain returns a law applying u = -K·input, where input is the filtered
// estimate when a filter runs and the true state otherwise.
func StaticGain(k *mat.Dense) ControlLaw {
	return ControlLaw{gain: mat.DenseCopyOf(k)}
}

// Callback returns a law delegating to c.
func Callback(c Controller) ControlLaw {
	return ControlLaw{controller: c}
}

func (l ControlLaw) IsSet() bool            { return l.gain != nil || l.controller != nil }
func (l ControlLaw) Gain() *mat.Dense       { return l.gain }
func (l ControlLaw) Controller() Controller { return l.controller }

// Resolve collapses the law into the single function the simulator calls
// each tick.
func (l ControlLaw) Resolve(filtering bool) (ControllerFunc, error) {
	switch {
	case l.gain != nil:
		k := l.gain
		return func(t float64, sys *System, st *State) float64 {
			input := st.X
			if filtering {
				input = st.Mu
			}
			return -mat.Dot(k.RowView(0), input)
		}, nil
	case l.controller != nil:
		return l.controller.Control, nil
	default:
		return nil, ErrNoControlLaw
	}
}

// System is a discrete-time linear model x' = A·x + B·u. C, V and W are
// either all set (filtering) or all nil.
//
// The simulator injects true-state noise and grows P with V, and draws
// measurement noise and forms the innovation covariance with W.
type System struct {
	A *mat.Dense
	B *mat.Dense

	C *mat.Dense
	W *mat.Dense
	V *mat.Dense

	Dt           float64
	TicksPerPlot int
	Affine       bool

	Law ControlLaw
}

// N is the state dimension.
func (s *System) N() int {
	if s.A == nil {
		return 0
	}
	r, _ := s.A.Dims()
	return r
}

// Filtering reports whether all of C, V and W are present.
func (s *System) Filtering() bool {
	return s.C != nil && s.V != nil && s.W != nil
}

func (s *System) partialFilter() bool {
	return !s.Filtering() && (s.C != nil || s.V != nil || s.W != nil)
}

// SetGain installs a static gain, replacing any controller.
func (s *System) SetGain(k *mat.Dense) {
	s.Law = StaticGain(k)
}

// SetController installs a callback, replacing any gain.
func (s *System) SetController(c Controller) {
	s.Law = Callback(c)
}

// Clone deep-copies the matrices. The controller itself is shared.
func (s *System) Clone() *System {
	c := *s
	c.A = cloneDense(s.A)
	c.B = cloneDense(s.B)
	c.C = cloneDense(s.C)
	c.W = cloneDense(s.W)
	c.V = cloneDense(s.V)
	if s.Law.gain != nil {
		c.Law.gain = cloneDense(s.Law.gain)
	}
	return &c
}

// State is the mutable per-run simulation state.
type State struct {
	X  *mat.VecDense // true state
	Mu *mat.VecDense // estimate
	P  *mat.Dense    // estimate covariance, nil unless filtering
}

func (s State) Clone() State {
	return State{
		X:  cloneVec(s.X),
		Mu: cloneVec(s.Mu),
		P:  cloneDense(s.P),
	}
}

func (s State) Pos() float64 { return s.X.AtVec(0) }
func (s State) Vel() float64 { return s.X.AtVec(1) }

// IsValid reports whether every entry of x, mu and P is finite.
func (s State) IsValid() bool {
	for _, v := range []*mat.VecDense{s.X, s.Mu} {
		if v == nil {
			continue
		}
		for i := 0; i < v.Len(); i++ {
			if !finite(v.AtVec(i)) {
				return false
			}
		}
	}
	if s.P != nil {
		r, c := s.P.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if !finite(s.P.At(i, j)) {
					return false
				}
			}
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}

func cloneVec(v *mat.VecDense) *mat.VecDense {
	if v == nil {
		return nil
	}
	return mat.VecDenseCopyOf(v)
}
