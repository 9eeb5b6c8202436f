package linsys

import (
	"github.com/san-kum/linsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// InitState places the mass at pos moving at vel.
//
// For an affine system the constant third component is set to 1. When sys
// filters, mu starts at x and P is diagonal in the init stddevs, which
// default to the process stddevs. The affine component is known exactly so
// its variance is zero.
func InitState(pos, vel float64, sys *System, opts Options) State {
	data := []float64{pos, vel}
	if sys.Affine {
		data = append(data, 1)
	}
	x := mat.NewVecDense(len(data), data)
	st := State{X: x}

	if !sys.Filtering() {
		return st
	}

	posInit := opts.PosProcessStddev
	if opts.PosInitStddev != nil {
		posInit = *opts.PosInitStddev
	}
	velInit := opts.VelProcessStddev
	if opts.VelInitStddev != nil {
		velInit = *opts.VelInitStddev
	}

	stddevs := []float64{posInit, velInit}
	if sys.Affine {
		stddevs = append(stddevs, 0)
	}

	st.Mu = mat.VecDenseCopyOf(x)
	st.P = linalg.VarianceFromStddevs(stddevs...)
	return st
}
