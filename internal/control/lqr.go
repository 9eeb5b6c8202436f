package control

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/linsim/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

const (
	DAREMaxIterations = 10000
	DARETolerance     = 1e-10
)

// ErrNotConverged is returned when the Riccati iteration does not settle.
var ErrNotConverged = errors.New("control: riccati iteration did not converge")

// LQR is state feedback u = -K·(input - Target). Input is the estimate when a
// filter runs and the true state otherwise.
type LQR struct {
	K      *mat.Dense
	Target *mat.VecDense
}

func NewLQR(k *mat.Dense, target *mat.VecDense) *LQR {
	return &LQR{K: k, Target: target}
}

// DesignLQR solves for the optimal gain of sys under weights q and r and
// regulates to the origin.
func DesignLQR(sys *linsys.System, q, r *mat.Dense) (*LQR, error) {
	k, err := Gain(sys.A, sys.B, q, r)
	if err != nil {
		return nil, err
	}
	return NewLQR(k, nil), nil
}

func (l *LQR) Control(t float64, sys *linsys.System, st *linsys.State) float64 {
	input := observed(sys, st)

	u := 0.0
	for j := 0; j < input.Len(); j++ {
		target := 0.0
		if l.Target != nil && j < l.Target.Len() {
			target = l.Target.AtVec(j)
		}
		u -= l.K.At(0, j) * (input.AtVec(j) - target)
	}
	return u
}

// Law returns the static gain law when there is no target, and the
// controller itself otherwise.
func (l *LQR) Law() linsys.ControlLaw {
	if l.Target == nil {
		return linsys.StaticGain(l.K)
	}
	return linsys.Callback(l)
}

// Weights returns a diagonal cost matrix. Missing trailing entries, such as
// the affine component, are zero.
func Weights(n int, diag ...float64) *mat.Dense {
	w := mat.NewDense(n, n, nil)
	for i := 0; i < n && i < len(diag); i++ {
		w.Set(i, i, diag[i])
	}
	return w
}

// Gain returns K = (R + BᵀPB)⁻¹BᵀPA for the stabilising solution P of the
// discrete algebraic Riccati equation.
func Gain(a, b, q, r *mat.Dense) (*mat.Dense, error) {
	p, err := DARE(a, b, q, r)
	if err != nil {
		return nil, err
	}
	return gainFrom(a, b, r, p)
}

// DARE iterates P = Q + AᵀPA - AᵀPB(R + BᵀPB)⁻¹BᵀPA from P = Q until the
// largest entry change drops below DARETolerance.
func DARE(a, b, q, r *mat.Dense) (*mat.Dense, error) {
	n, nc := a.Dims()
	if n != nc {
		return nil, fmt.Errorf("%w: A is %dx%d", linsys.ErrDimensionMismatch, n, nc)
	}
	br, m := b.Dims()
	if br != n {
		return nil, fmt.Errorf("%w: B has %d rows, A has %d", linsys.ErrDimensionMismatch, br, n)
	}
	if qr, qc := q.Dims(); qr != n || qc != n {
		return nil, fmt.Errorf("%w: Q is %dx%d, want %dx%d", linsys.ErrDimensionMismatch, qr, qc, n, n)
	}
	if rr, rc := r.Dims(); rr != m || rc != m {
		return nil, fmt.Errorf("%w: R is %dx%d, want %dx%d", linsys.ErrDimensionMismatch, rr, rc, m, m)
	}

	p := mat.DenseCopyOf(q)
	for i := 0; i < DAREMaxIterations; i++ {
		k, err := gainFrom(a, b, r, p)
		if err != nil {
			return nil, err
		}

		// P' = Q + AᵀP(A - BK)
		var bk, closed, next mat.Dense
		bk.Mul(b, k)
		closed.Sub(a, &bk)
		next.Product(a.T(), p, &closed)
		next.Add(&next, q)
		symmetrize(&next)

		delta := maxAbsDiff(&next, p)
		p = &next
		if delta < DARETolerance {
			return p, nil
		}
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			break
		}
	}
	return nil, ErrNotConverged
}

func gainFrom(a, b, r, p *mat.Dense) (*mat.Dense, error) {
	_, m := b.Dims()
	n, _ := a.Dims()

	s := mat.NewDense(m, m, nil)
	s.Product(b.T(), p, b)
	s.Add(s, r)

	var sInv mat.Dense
	if err := sInv.Inverse(s); err != nil {
		return nil, fmt.Errorf("control: R + BᵀPB not invertible: %w", err)
	}

	k := mat.NewDense(m, n, nil)
	k.Product(&sInv, b.T(), p, a)
	return k, nil
}

func symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (m.At(i, j) + m.At(j, i)) / 2
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	r, c := a.Dims()
	largest := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if d := math.Abs(a.At(i, j) - b.At(i, j)); d > largest || math.IsNaN(d) {
				largest = d
			}
		}
	}
	return largest
}
