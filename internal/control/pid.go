package control

import "github.com/san-kum/linsim/internal/linsys"

// PID drives position to Target. The derivative term acts on the velocity
// state rather than on the differenced error, so a target change gives no
// derivative kick. With a filter running it reads the estimate.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	integral float64
	lastT    float64
	started  bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target}
}

func (p *PID) Control(t float64, sys *linsys.System, st *linsys.State) float64 {
	x := observed(sys, st)
	err := p.Target - x.AtVec(0)

	if p.started && t > p.lastT {
		p.integral += err * (t - p.lastT)
	}
	p.started, p.lastT = true, t

	return p.Kp*err + p.Ki*p.integral - p.Kd*x.AtVec(1)
}

// Reset clears the integral between runs.
func (p *PID) Reset() {
	p.integral = 0
	p.lastT = 0
	p.started = false
}
