package control

import (
	"math"
	"sync/atomic"

	"github.com/san-kum/linsim/internal/linsys"
)

// Manual applies a constant force that a UI can change between runs.
type Manual struct {
	bits atomic.Uint64
}

func NewManual(u float64) *Manual {
	m := &Manual{}
	m.Set(u)
	return m
}

// Set updates the force used from the next tick on.
func (m *Manual) Set(u float64) {
	m.bits.Store(math.Float64bits(u))
}

func (m *Manual) Value() float64 {
	return math.Float64frombits(m.bits.Load())
}

func (m *Manual) Control(t float64, sys *linsys.System, st *linsys.State) float64 {
	return m.Value()
}
