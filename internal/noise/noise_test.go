package noise

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNormalSpareCaching(t *testing.T) {
	n := NewNormal(3)

	first := n.Float64()
	if !n.hasSpare {
		t.Fatal("expected a cached spare after the first draw")
	}
	spare := n.spare

	second := n.Float64()
	if second != spare {
		t.Errorf("second draw = %v, want cached spare %v", second, spare)
	}
	if n.hasSpare {
		t.Error("spare should be consumed after the second draw")
	}
	if first == second {
		t.Error("pair members should differ")
	}
}

func TestNormalMatchesPolarMethod(t *testing.T) {
	const seed = 11
	n := NewNormal(seed)
	ref := rand.New(rand.NewSource(seed))

	var u, v, s float64
	for {
		u = ref.Float64()*2 - 1
		v = ref.Float64()*2 - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	s = math.Sqrt(-2 * math.Log(s) / s)

	assert.Equal(t, u*s, n.Float64())
	assert.Equal(t, v*s, n.Float64())
}

func TestNormalMoments(t *testing.T) {
	n := NewNormal(42)
	const samples = 200000

	var sum, sumSq float64
	for i := 0; i < samples; i++ {
		x := n.Float64()
		sum += x
		sumSq += x * x
	}
	mean := sum / samples
	variance := sumSq/samples - mean*mean

	assert.InDelta(t, 0, mean, 0.01)
	assert.InDelta(t, 1, variance, 0.02)
}

func TestNormalDeterministic(t *testing.T) {
	a := NewNormal(99).Vec(16)
	b := NewNormal(99).Vec(16)
	assert.True(t, mat.Equal(a, b))
}

func TestShapeCovariance(t *testing.T) {
	n := NewNormal(5)
	root := mat.NewDense(2, 2, []float64{2, 0, 1, 0.5})
	const samples = 100000

	var cov mat.Dense
	cov.Mul(root, root.T())

	acc := mat.NewDense(2, 2, nil)
	for i := 0; i < samples; i++ {
		v := n.Shape(root)
		var outer mat.Dense
		outer.Outer(1, v, v)
		acc.Add(acc, &outer)
	}
	acc.Scale(1.0/samples, acc)

	assert.True(t, mat.EqualApprox(acc, &cov, 0.05), "empirical %v\nwant %v", mat.Formatted(acc), mat.Formatted(&cov))
}
