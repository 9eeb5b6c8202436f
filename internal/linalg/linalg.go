// Package linalg collects the small matrix helpers the simulator needs on top
// of gonum: a square root for covariance matrices, identity construction and
// the symmetry and definiteness checks used by validation and tests.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSVDFailed is returned when gonum cannot factorize a matrix.
var ErrSVDFailed = errors.New("linalg: singular value decomposition failed")

// Sqrt returns M' with M'·M'ᵀ ≈ M for a symmetric positive semi-definite M.
//
// The factorization is M = U·Σ·Vᵀ and the result is V·sqrt(Σ)·Vᵀ. A nil input
// yields a nil result so that absent covariances propagate. The input is not
// modified.
func Sqrt(m *mat.Dense) (*mat.Dense, error) {
	if m == nil {
		return nil, nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, ErrSVDFailed
	}

	values := svd.Values(nil)
	for i, v := range values {
		values[i] = math.Sqrt(v)
	}

	var v mat.Dense
	svd.VTo(&v)

	var out mat.Dense
	out.Product(&v, mat.NewDiagDense(len(values), values), v.T())
	return &out, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// Diag returns a dense diagonal matrix holding values.
func Diag(values ...float64) *mat.Dense {
	n := len(values)
	d := mat.NewDense(n, n, nil)
	for i, v := range values {
		d.Set(i, i, v)
	}
	return d
}

// VarianceFromStddevs squares each standard deviation onto a diagonal.
func VarianceFromStddevs(stddevs ...float64) *mat.Dense {
	variances := make([]float64, len(stddevs))
	for i, s := range stddevs {
		variances[i] = s * s
	}
	return Diag(variances...)
}

// Trace sums the diagonal of a square matrix.
func Trace(m mat.Matrix) float64 {
	return mat.Trace(m)
}

// IsSymmetric reports whether m is square and equal to its transpose within tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// IsPSD reports whether m is symmetric and has no eigenvalue below -tol.
func IsPSD(m mat.Matrix, tol float64) bool {
	if !IsSymmetric(m, tol) {
		return false
	}

	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if v < -tol {
			return false
		}
	}
	return true
}

// IsSquare reports whether m has n rows and n columns.
func IsSquare(m mat.Matrix, n int) bool {
	r, c := m.Dims()
	return r == n && c == n
}
