package control

import "github.com/san-kum/linsim/internal/linsys"

// Pulse pushes with Height while start - dt/2 <= t <= start + duration + dt/2.
// The half-step margins keep accumulated float time from dropping the edge
// ticks.
type Pulse struct {
	Start    float64
	Duration float64
	Height   float64
	margin   float64
}

func NewPulse(start, duration, dt float64) *Pulse {
	return &Pulse{Start: start, Duration: duration, Height: 1, margin: dt / 2}
}

func (p *Pulse) Active(t float64) bool {
	return t >= p.Start-p.margin && t <= p.Start+p.Duration+p.margin
}

func (p *Pulse) Control(t float64, sys *linsys.System, st *linsys.State) float64 {
	if p.Active(t) {
		return p.Height
	}
	return 0
}
