package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/linsim/internal/kalman"
	"github.com/san-kum/linsim/internal/linalg"
	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/noise"
	"gonum.org/v1/gonum/mat"
)

type Simulator struct {
	sys       *linsys.System
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New(sys *linsys.System) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) System() *linsys.System { return s.sys }

// SetLogger replaces the default discard logger.
func (s *Simulator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Simulate runs sys from init with the given horizon and seed.
func Simulate(ctx context.Context, sys *linsys.System, init linsys.State, cfg Config) (*Result, error) {
	return New(sys).Run(ctx, init, cfg)
}

// Run advances a private copy of the system and state from t=0 while
// t < TFinal + dt/2, plotting every TicksPerPlot ticks. Configuration errors
// are returned before the first tick; failures inside the loop come back as
// *linsys.SimulationError.
func (s *Simulator) Run(ctx context.Context, init linsys.State, cfg Config) (*Result, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if s.sys == nil {
		return nil, fmt.Errorf("%w: no system", linsys.ErrDimensionMismatch)
	}

	sys := s.sys.Clone()
	st := init.Clone()
	if err := linsys.Validate(sys, st); err != nil {
		return nil, err
	}

	filtering := sys.Filtering()
	law, err := sys.Law.Resolve(filtering)
	if err != nil {
		return nil, err
	}
	if r, ok := sys.Law.Controller().(Resetter); ok {
		r.Reset()
	}
	if st.Mu == nil {
		st.Mu = mat.VecDenseCopyOf(st.X)
	}

	var sqrtV, sqrtW *mat.Dense
	if filtering {
		if sqrtV, err = linalg.Sqrt(sys.V); err != nil {
			return nil, fmt.Errorf("sqrt V: %w", err)
		}
		if sqrtW, err = linalg.Sqrt(sys.W); err != nil {
			return nil, fmt.Errorf("sqrt W: %w", err)
		}
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	dt := sys.Dt
	capacity := int(cfg.TFinal/dt)/sys.TicksPerPlot + 2
	result := &Result{
		Position:  newSeries("position", filtering, capacity),
		Velocity:  newSeries("velocity", filtering, capacity),
		Force:     newSeries("force", false, capacity),
		ErrorBars: filtering,
		Metrics:   make(map[string]float64),
	}

	s.logger.Debug("simulation starting",
		"states", sys.N(),
		"dt", dt,
		"t_final", cfg.TFinal,
		"ticks_per_plot", sys.TicksPerPlot,
		"filtering", filtering,
		"seed", cfg.Seed)

	rng := noise.NewNormal(cfg.Seed)
	limit := cfg.TFinal + 0.5*dt
	tick := 0

	for t := 0.0; t < limit; t += dt {
		select {
		case <-ctx.Done():
			return nil, &linsys.SimulationError{Tick: tick, Time: t, Wrapped: ctx.Err()}
		default:
		}

		u := law(t, sys, &st)
		if math.IsNaN(u) || math.IsInf(u, 0) {
			return nil, &linsys.SimulationError{Tick: tick, Time: t,
				Wrapped: fmt.Errorf("%w: control input %v", linsys.ErrInvalidState, u)}
		}

		plot := tick%sys.TicksPerPlot == 0
		if plot {
			result.Force.Samples = append(result.Force.Samples, Sample{T: t, True: u})
		}

		if filtering {
			x := kalman.Propagate(sys.A, sys.B, st.X, u)
			x.AddVec(x, rng.Shape(sqrtV))
			st.X = x

			mu, p := kalman.Predict(sys.A, sys.B, sys.V, st.Mu, st.P, u)

			m, _ := sys.C.Dims()
			z := mat.NewVecDense(m, nil)
			z.MulVec(sys.C, st.X)
			z.AddVec(z, rng.Shape(sqrtW))

			mu, p, l, err := kalman.Update(mu, p, sys.C, sys.W, z)
			if err != nil {
				return nil, &linsys.SimulationError{Tick: tick, Time: t, Wrapped: err}
			}
			st.Mu, st.P = mu, p
			result.LFinal = l

			if plot {
				result.Position.Samples = append(result.Position.Samples, filteredSample(t, &st, 0))
				result.Velocity.Samples = append(result.Velocity.Samples, filteredSample(t, &st, 1))
			}
		} else {
			st.X = kalman.Propagate(sys.A, sys.B, st.X, u)
			st.Mu = mat.VecDenseCopyOf(st.X)

			if plot {
				result.Position.Samples = append(result.Position.Samples, Sample{T: t, True: st.X.AtVec(0)})
				result.Velocity.Samples = append(result.Velocity.Samples, Sample{T: t, True: st.X.AtVec(1)})
			}
		}

		if !st.IsValid() {
			return nil, &linsys.SimulationError{Tick: tick, Time: t, Wrapped: linsys.ErrInvalidState}
		}

		for _, m := range s.metrics {
			m.Observe(t, u, &st)
		}
		for _, obs := range s.observers {
			obs.OnTick(tick, t, u, &st)
		}
		tick++
	}

	result.Ticks = tick
	result.Final = st
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("simulation finished", "ticks", tick, "samples", len(result.Position.Samples))
	return result, nil
}

func filteredSample(t float64, st *linsys.State, i int) Sample {
	return Sample{
		T:     t,
		True:  st.X.AtVec(i),
		Est:   st.Mu.AtVec(i),
		Sigma: math.Sqrt(math.Max(st.P.At(i, i), 0)),
	}
}

func validateConfig(cfg *Config) error {
	if cfg.TFinal == 0 {
		cfg.TFinal = linsys.DefaultTFinal
	}
	if cfg.TFinal < 0 || math.IsNaN(cfg.TFinal) || math.IsInf(cfg.TFinal, 0) {
		return fmt.Errorf("%w: t_final must be positive and finite, got %v", linsys.ErrInvalidOptions, cfg.TFinal)
	}
	return nil
}
