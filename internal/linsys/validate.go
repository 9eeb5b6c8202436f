package linsys

import (
	"fmt"

	"github.com/san-kum/linsim/internal/linalg"
)

// Validate checks that sys and st can be simulated together. It runs before
// the first tick so that a bad configuration never produces partial output.
func Validate(sys *System, st State) error {
	if sys == nil || sys.A == nil || sys.B == nil {
		return fmt.Errorf("%w: system requires A and B", ErrDimensionMismatch)
	}

	n := sys.N()
	if r, c := sys.A.Dims(); r != c {
		return dimErr("A is %dx%d, want square", r, c)
	}
	if r, c := sys.B.Dims(); r != n || c != 1 {
		return dimErr("B is %dx%d, want %dx1", r, c, n)
	}
	if sys.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidOptions, sys.Dt)
	}
	if sys.TicksPerPlot < 1 {
		return fmt.Errorf("%w: ticks_per_plot must be at least 1, got %d", ErrInvalidOptions, sys.TicksPerPlot)
	}
	if sys.partialFilter() {
		return fmt.Errorf("%w: C set=%t V set=%t W set=%t",
			ErrPartialFilter, sys.C != nil, sys.V != nil, sys.W != nil)
	}

	if st.X == nil {
		return dimErr("state has no x")
	}
	if st.X.Len() != n {
		return dimErr("x has %d entries, system has %d states", st.X.Len(), n)
	}
	if st.Mu != nil && st.Mu.Len() != n {
		return dimErr("mu has %d entries, system has %d states", st.Mu.Len(), n)
	}

	if sys.Filtering() {
		m, c := sys.C.Dims()
		if c != n || m == 0 {
			return dimErr("C is %dx%d, want mx%d", m, c, n)
		}
		if !linalg.IsSquare(sys.V, n) {
			r, c := sys.V.Dims()
			return dimErr("V drives the state noise and is %dx%d, want %dx%d", r, c, n, n)
		}
		if !linalg.IsSquare(sys.W, m) {
			r, c := sys.W.Dims()
			return dimErr("W drives the measurement noise and is %dx%d, want %dx%d", r, c, m, m)
		}
		if st.P == nil {
			return dimErr("filtering state has no P")
		}
		if !linalg.IsSquare(st.P, n) {
			r, c := st.P.Dims()
			return dimErr("P is %dx%d, want %dx%d", r, c, n, n)
		}
	}

	if !sys.Law.IsSet() {
		return ErrNoControlLaw
	}
	if k := sys.Law.Gain(); k != nil {
		if r, c := k.Dims(); r != 1 || c != n {
			return dimErr("K is %dx%d, want 1x%d", r, c, n)
		}
	}

	return nil
}
