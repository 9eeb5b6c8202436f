// Package noise generates the Gaussian disturbances injected by the simulator.
//
// Standard normal draws come from the Marsaglia polar method. Each accepted
// point in the unit disk yields two independent values; the second is cached
// and returned by the next call. A Normal is not safe for concurrent use, so
// every simulation run owns its own generator.
package noise

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

type Normal struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

func NewNormal(seed int64) *Normal {
	return NewNormalFrom(rand.New(rand.NewSource(seed)))
}

func NewNormalFrom(rng *rand.Rand) *Normal {
	return &Normal{rng: rng}
}

// Float64 returns one standard normal draw.
func (n *Normal) Float64() float64 {
	if n.hasSpare {
		n.hasSpare = false
		return n.spare
	}

	var u, v, s float64
	for {
		u = n.rng.Float64()*2 - 1
		v = n.rng.Float64()*2 - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}

	s = math.Sqrt(-2 * math.Log(s) / s)
	n.spare = v * s
	n.hasSpare = true
	return u * s
}

// Vec returns length independent standard normal draws.
func (n *Normal) Vec(length int) *mat.VecDense {
	data := make([]float64, length)
	for i := range data {
		data[i] = n.Float64()
	}
	return mat.NewVecDense(length, data)
}

// Shape returns M·z for z standard normal with len(z) = rows(M), which has
// covariance M·Mᵀ.
func (n *Normal) Shape(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(m, n.Vec(r))
	return out
}
