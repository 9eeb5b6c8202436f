package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/linsim/internal/control"
	"github.com/san-kum/linsim/internal/linsys"
)

// Param is one tunable value of a scenario.
type Param struct {
	Name        string
	Description string
	Default     float64
	Min         float64
	Max         float64
	Step        float64
}

// SetupFunc builds the system and initial state from resolved values.
type SetupFunc func(values map[string]float64) (*linsys.System, linsys.State, error)

type Scenario struct {
	Name      string
	Title     string
	Params    []Param
	HideForce bool
	Setup     SetupFunc
}

// Defaults returns the default value of every param.
func (s *Scenario) Defaults() map[string]float64 {
	out := make(map[string]float64, len(s.Params))
	for _, p := range s.Params {
		out[p.Name] = p.Default
	}
	return out
}

// Resolve overlays values on the defaults. Unknown names are an error so a
// typo does not silently run the default.
func (s *Scenario) Resolve(values map[string]float64) (map[string]float64, error) {
	out := s.Defaults()
	for k, v := range values {
		if _, ok := out[k]; !ok {
			return nil, fmt.Errorf("scenario %s has no value %q", s.Name, k)
		}
		out[k] = v
	}
	return out, nil
}

func (s *Scenario) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Build resolves values and runs Setup.
func (s *Scenario) Build(values map[string]float64) (*linsys.System, linsys.State, error) {
	resolved, err := s.Resolve(values)
	if err != nil {
		return nil, linsys.State{}, err
	}
	return s.Setup(resolved)
}

type Registry struct {
	scenarios map[string]*Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]*Scenario)}

	r.Register(&Scenario{
		Name:  "ice_block",
		Title: "Ice block wheeeee",
		Params: []Param{
			{Name: "first_time", Description: "push start (s)", Default: 1.0, Min: 0, Max: 5, Step: 0.1},
			{Name: "first_duration", Description: "push length (s)", Default: 0.5, Min: 0, Max: 3, Step: 0.1},
		},
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			opts := linsys.Options{}
			return pushed(opts, v["first_time"], v["first_duration"], 0, 0.1)
		},
	})

	r.Register(&Scenario{
		Name:      "friction",
		Title:     "Ice block with friction",
		HideForce: true,
		Params: []Param{
			{Name: "beta", Description: "damping", Default: 0.5, Min: 0, Max: 3, Step: 0.1},
		},
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			return coasting(linsys.Options{Damping: v["beta"]}, 0, 1.0)
		},
	})

	r.Register(&Scenario{
		Name:      "springy",
		Title:     "Springy ice block",
		HideForce: true,
		Params: []Param{
			{Name: "alpha", Description: "stiffness", Default: 1.0, Min: 0, Max: 10, Step: 0.1},
		},
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			return coasting(linsys.Options{Dt: 0.001, TicksPerPlot: 10, Stiffness: v["alpha"]}, 1.0, 0)
		},
	})

	r.Register(&Scenario{
		Name:  "all_things",
		Title: "All of the things!",
		Params: []Param{
			{Name: "alpha2", Description: "stiffness", Default: 2.0, Min: 0, Max: 10, Step: 0.1},
			{Name: "beta2", Description: "damping", Default: 0.5, Min: 0, Max: 3, Step: 0.1},
			{Name: "last_time", Description: "push start (s)", Default: 2.0, Min: 0, Max: 10, Step: 0.1},
			{Name: "last_duration", Description: "push length (s)", Default: 0.5, Min: 0, Max: 3, Step: 0.1},
		},
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			opts := linsys.Options{Dt: 0.001, TicksPerPlot: 10, Stiffness: v["alpha2"], Damping: v["beta2"]}
			return pushed(opts, v["last_time"], v["last_duration"], 0.5, 0.1)
		},
	})

	r.Register(&Scenario{
		Name:  "noisy_block",
		Title: "Noisy ice block with a Kalman filter",
		Params: []Param{
			{Name: "push_time", Description: "push start (s)", Default: 1.0, Min: 0, Max: 5, Step: 0.1},
			{Name: "push_duration", Description: "push length (s)", Default: 0.5, Min: 0, Max: 3, Step: 0.1},
		},
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			return pushed(linsys.DefaultKalmanOptions(), v["push_time"], v["push_duration"], 0, 0.1)
		},
	})

	r.Register(&Scenario{
		Name:   "lqr_block",
		Title:  "Ice block parked by LQR",
		Params: lqrParams(),
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			return regulated(linsys.Options{}, v)
		},
	})

	r.Register(&Scenario{
		Name:   "lqr_kalman",
		Title:  "LQR on the Kalman estimate",
		Params: lqrParams(),
		Setup: func(v map[string]float64) (*linsys.System, linsys.State, error) {
			return regulated(linsys.DefaultKalmanOptions(), v)
		},
	})

	return r
}

func (r *Registry) Register(s *Scenario) {
	r.scenarios[s.Name] = s
}

func (r *Registry) Get(name string) (*Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lqrParams() []Param {
	return []Param{
		{Name: "q_pos", Description: "position cost", Default: 1.0, Min: 0.01, Max: 100, Step: 0.1},
		{Name: "q_vel", Description: "velocity cost", Default: 1.0, Min: 0.01, Max: 100, Step: 0.1},
		{Name: "r", Description: "force cost", Default: 1.0, Min: 0.01, Max: 100, Step: 0.1},
	}
}

func pushed(opts linsys.Options, start, duration, pos, vel float64) (*linsys.System, linsys.State, error) {
	sys, err := linsys.Build(opts)
	if err != nil {
		return nil, linsys.State{}, err
	}
	sys.SetController(control.NewPulse(start, duration, sys.Dt))
	return sys, linsys.InitState(pos, vel, sys, opts), nil
}

func coasting(opts linsys.Options, pos, vel float64) (*linsys.System, linsys.State, error) {
	sys, err := linsys.Build(opts)
	if err != nil {
		return nil, linsys.State{}, err
	}
	sys.SetController(control.NewZero())
	return sys, linsys.InitState(pos, vel, sys, opts), nil
}

func regulated(opts linsys.Options, v map[string]float64) (*linsys.System, linsys.State, error) {
	sys, err := linsys.Build(opts)
	if err != nil {
		return nil, linsys.State{}, err
	}
	q := control.Weights(sys.N(), v["q_pos"], v["q_vel"])
	r := control.Weights(1, v["r"])
	k, err := control.Gain(sys.A, sys.B, q, r)
	if err != nil {
		return nil, linsys.State{}, fmt.Errorf("lqr gain: %w", err)
	}
	sys.SetGain(k)
	return sys, linsys.InitState(1, 0, sys, opts), nil
}
