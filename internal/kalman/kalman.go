// Package kalman implements the predict and measurement-correction steps of
// a discrete Kalman filter on gonum matrices.
//
// The functions are pure: they return new vectors and matrices and leave
// their arguments untouched, so callers can keep the before/after covariance
// side by side.
package kalman

import (
	"fmt"

	"github.com/san-kum/linsim/internal/linalg"
	"github.com/san-kum/linsim/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

// Propagate returns A·x + B·u.
func Propagate(a, b *mat.Dense, x mat.Vector, u float64) *mat.VecDense {
	n, _ := a.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(a, x)
	out.AddScaledVec(out, u, b.ColView(0))
	return out
}

// Predict advances the estimate through the motion model:
// mu' = A·mu + B·u and P' = A·P·Aᵀ + Q.
func Predict(a, b *mat.Dense, q mat.Matrix, mu mat.Vector, p mat.Matrix, u float64) (*mat.VecDense, *mat.Dense) {
	n, _ := a.Dims()
	next := mat.NewDense(n, n, nil)
	next.Product(a, p, a.T())
	next.Add(next, q)
	return Propagate(a, b, mu, u), next
}

// Innovation returns S = C·P·Cᵀ + R.
func Innovation(c, p, r mat.Matrix) *mat.Dense {
	m, _ := c.Dims()
	s := mat.NewDense(m, m, nil)
	s.Product(c, p, c.T())
	s.Add(s, r)
	return s
}

// Gain returns L = P·Cᵀ·S⁻¹, inverting S through its LU decomposition.
func Gain(p, c, s mat.Matrix) (*mat.Dense, error) {
	m, _ := s.Dims()

	var lu mat.LU
	lu.Factorize(s)
	if lu.Det() == 0 {
		return nil, linsys.ErrSingularInnovation
	}

	var sInv mat.Dense
	if err := lu.SolveTo(&sInv, false, linalg.Identity(m)); err != nil {
		return nil, fmt.Errorf("%w: %v", linsys.ErrSingularInnovation, err)
	}

	n, _ := p.Dims()
	l := mat.NewDense(n, m, nil)
	l.Product(p, c.T(), &sInv)
	return l, nil
}

// Correct folds the measurement z into the estimate:
// mu' = mu + L·(z − C·mu) and P' = (I − L·C)·P.
func Correct(mu mat.Vector, p, l, c mat.Matrix, z mat.Vector) (*mat.VecDense, *mat.Dense) {
	m, n := c.Dims()

	residual := mat.NewVecDense(m, nil)
	residual.MulVec(c, mu)
	residual.SubVec(z, residual)

	next := mat.NewVecDense(n, nil)
	next.MulVec(l, residual)
	next.AddVec(mu, next)

	var lc mat.Dense
	lc.Mul(l, c)
	factor := linalg.Identity(n)
	factor.Sub(factor, &lc)

	cov := mat.NewDense(n, n, nil)
	cov.Mul(factor, p)
	return next, cov
}

// Update runs the whole measurement step and also returns the gain used.
func Update(mu mat.Vector, p, c, r mat.Matrix, z mat.Vector) (*mat.VecDense, *mat.Dense, *mat.Dense, error) {
	s := Innovation(c, p, r)
	l, err := Gain(p, c, s)
	if err != nil {
		return nil, nil, nil, err
	}
	nextMu, nextP := Correct(mu, p, l, c, z)
	return nextMu, nextP, l, nil
}
