package metrics

import (
	"math"

	"github.com/san-kum/linsim/internal/linsys"
)

// spring is the mechanical energy of a unit mass on a spring,
// 0.5·v² + 0.5·k·x².
type spring float64

func (k spring) energy(st *linsys.State) float64 {
	x, v := st.Pos(), st.Vel()
	return 0.5*v*v + 0.5*float64(k)*x*x
}

// Energy is the mean mechanical energy over the run.
type Energy struct {
	k   spring
	avg mean
}

func NewEnergy(stiffness float64) *Energy { return &Energy{k: spring(stiffness)} }

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(t, u float64, st *linsys.State) { e.avg.add(e.k.energy(st)) }

func (e *Energy) Value() float64 { return e.avg.value(0) }

func (e *Energy) Reset() { e.avg.reset() }

// EnergyDrift is the largest relative change from the first observed energy.
// Damping or a force makes it grow; a lossless spring keeps it near the
// discretisation error. A run starting at rest reports zero.
type EnergyDrift struct {
	k     spring
	ref   float64
	seen  bool
	worst float64
}

func NewEnergyDrift(stiffness float64) *EnergyDrift { return &EnergyDrift{k: spring(stiffness)} }

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(t, u float64, st *linsys.State) {
	en := e.k.energy(st)
	if !e.seen {
		e.ref, e.seen = en, true
	}
	if e.ref == 0 {
		return
	}
	e.worst = max(e.worst, math.Abs(en/e.ref-1))
}

func (e *EnergyDrift) Value() float64 { return e.worst }

func (e *EnergyDrift) Reset() { *e = EnergyDrift{k: e.k} }
