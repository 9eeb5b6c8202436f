package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/linsim/internal/sim"
)

// DefaultStabilityThreshold bounds |pos| and |vel| for the stability metric.
const DefaultStabilityThreshold = 1.0

var factories = map[string]func(stiffness float64) sim.Metric{
	"control_effort":   func(float64) sim.Metric { return NewControlEffort() },
	"stability":        func(float64) sim.Metric { return NewStability(DefaultStabilityThreshold) },
	"estimation_rms":   func(float64) sim.Metric { return NewEstimationRMS() },
	"covariance_trace": func(float64) sim.Metric { return NewCovarianceTrace() },
	"energy":           func(k float64) sim.Metric { return NewEnergy(k) },
	"energy_drift":     func(k float64) sim.Metric { return NewEnergyDrift(k) },
}

// New returns a fresh metric by name. stiffness only matters for the
// energy metrics.
func New(name string, stiffness float64) (sim.Metric, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return f(stiffness), nil
}

// Standard returns one of each metric that applies to every run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewStability(DefaultStabilityThreshold),
		NewEstimationRMS(),
		NewCovarianceTrace(),
	}
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
