package metrics

import (
	"math"

	"github.com/san-kum/linsim/internal/linsys"
)

// Stability is the fraction of ticks with |pos| and |vel| both within the
// threshold. The affine component is not checked. An empty run counts as
// stable.
type Stability struct {
	threshold float64
	within    mean
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(t, u float64, st *linsys.State) {
	if math.Abs(st.Pos()) <= s.threshold && math.Abs(st.Vel()) <= s.threshold {
		s.within.add(1)
		return
	}
	s.within.add(0)
}

func (s *Stability) Value() float64 { return s.within.value(1) }

func (s *Stability) Reset() { s.within.reset() }
