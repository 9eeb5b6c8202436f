package metrics

import (
	"math"

	"github.com/san-kum/linsim/internal/linsys"
)

// ControlEffort is the mean |u| over the run. Peak keeps the largest |u|
// seen, which the value alone hides for pulse forces.
type ControlEffort struct {
	abs  mean
	peak float64
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(t, u float64, st *linsys.State) {
	a := math.Abs(u)
	c.abs.add(a)
	c.peak = max(c.peak, a)
}

func (c *ControlEffort) Value() float64 { return c.abs.value(0) }

func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	c.abs.reset()
	c.peak = 0
}
