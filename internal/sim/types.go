package sim

import (
	"fmt"

	"github.com/san-kum/linsim/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

// Metric accumulates a scalar over the ticks of one run.
type Metric interface {
	Name() string
	Observe(t, u float64, st *linsys.State)
	Value() float64
	Reset()
}

// Observer sees the post-update state of every tick. It must not retain st.
type Observer interface {
	OnTick(tick int, t, u float64, st *linsys.State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(tick int, t, u float64, st *linsys.State)

func (f ObserverFunc) OnTick(tick int, t, u float64, st *linsys.State) { f(tick, t, u, st) }

// Resetter is implemented by stateful controllers that must start clean on
// every run.
type Resetter interface {
	Reset()
}

type Config struct {
	TFinal float64 `yaml:"t_final" json:"t_final"`
	Seed   int64   `yaml:"seed" json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		TFinal: linsys.DefaultTFinal,
		Seed:   1,
	}
}

// Sample is one plotted point. Without a filter only T and True are set.
type Sample struct {
	T     float64
	True  float64
	Est   float64
	Sigma float64
}

// Series is one chart's worth of samples plus its display metadata.
type Series struct {
	Name      string
	Labels    []string
	Colors    []string
	ErrorBars bool
	Hidden    bool
	Samples   []Sample
}

// Times returns the sample times.
func (s Series) Times() []float64 {
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.T
	}
	return out
}

// Values returns the true values.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.True
	}
	return out
}

// Estimates returns the filtered estimates, or nil without error bars.
func (s Series) Estimates() []float64 {
	if !s.ErrorBars {
		return nil
	}
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Est
	}
	return out
}

// Last returns the final sample.
func (s Series) Last() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// Result is the output of one run.
type Result struct {
	Position  Series
	Velocity  Series
	Force     Series
	ErrorBars bool
	Ticks     int
	Metrics   map[string]float64

	// LFinal is the Kalman gain of the last tick, nil without a filter.
	LFinal *mat.Dense
	// Final is the state after the last tick.
	Final linsys.State
}

func (r *Result) String() string {
	return fmt.Sprintf("ticks=%d samples=%d filtered=%t", r.Ticks, len(r.Position.Samples), r.ErrorBars)
}

const (
	colorTruePos = "#00c"
	colorEstPos  = "#b0d"
	colorTrueVel = "#080"
	colorEstVel  = "#0bb"
	colorForce   = "#c00"
)

func newSeries(name string, filtering bool, capacity int) Series {
	s := Series{Name: name, ErrorBars: filtering, Samples: make([]Sample, 0, capacity)}
	switch {
	case name == "force":
		s.ErrorBars = false
		s.Labels = []string{"time", "force"}
		s.Colors = []string{colorForce}
	case name == "position" && filtering:
		s.Labels = []string{"time", "true pos", "est. pos"}
		s.Colors = []string{colorTruePos, colorEstPos}
	case name == "position":
		s.Labels = []string{"time", "pos"}
		s.Colors = []string{colorTruePos}
	case name == "velocity" && filtering:
		s.Labels = []string{"time", "true vel", "est. vel"}
		s.Colors = []string{colorTrueVel, colorEstVel}
	default:
		s.Labels = []string{"time", "vel"}
		s.Colors = []string{colorTrueVel}
	}
	return s
}
