package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/linsim/internal/config"
	"github.com/san-kum/linsim/internal/control"
	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/metrics"
	"github.com/san-kum/linsim/internal/sim"
	"gonum.org/v1/gonum/mat"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	scenario  *Scenario
	simulator *sim.Simulator
	init      linsys.State
	logger    *slog.Logger
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *Experiment) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Setup assembles the system and attaches the configured metrics.
func (e *Experiment) Setup() error {
	sys, init, scenario, err := Assemble(e.cfg, e.registry)
	if err != nil {
		return err
	}

	ms, err := buildMetrics(e.cfg.Metrics, sys)
	if err != nil {
		return err
	}

	e.scenario = scenario
	e.init = init
	e.simulator = sim.New(sys)
	e.simulator.SetLogger(e.logger)
	for _, m := range ms {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.logger.Info("running experiment", "scenario", e.cfg.Scenario, "t_final", e.cfg.TFinal, "seed", e.cfg.Seed)
	result, err := e.simulator.Run(ctx, e.init, sim.Config{TFinal: e.cfg.TFinal, Seed: e.cfg.Seed})
	if err != nil {
		return nil, err
	}
	if e.scenario != nil && e.scenario.HideForce && e.cfg.Controller == nil {
		result.Force.Hidden = true
	}
	return result, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Scenario is nil for a config without one.
func (e *Experiment) Scenario() *Scenario { return e.scenario }

func (e *Experiment) Init() linsys.State { return e.init }

// Assemble turns a config into a runnable system and initial state.
//
// The scenario, if any, provides the base. An explicit System rebuilds the
// matrices and keeps the scenario's control law and position/velocity;
// InitState replaces position and velocity; Controller replaces the law.
func Assemble(cfg *config.Config, registry *Registry) (*linsys.System, linsys.State, *Scenario, error) {
	var (
		sys      *linsys.System
		init     linsys.State
		scenario *Scenario
		err      error
	)

	if cfg.Scenario != "" {
		if scenario, err = registry.Get(cfg.Scenario); err != nil {
			return nil, init, nil, err
		}
		if sys, init, err = scenario.Build(cfg.Values); err != nil {
			return nil, init, nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	if cfg.System != nil {
		law := linsys.ControlLaw{}
		pos, vel := 0.0, 0.0
		if sys != nil {
			law = sys.Law
			pos, vel = init.Pos(), init.Vel()
		}
		if sys, err = linsys.Build(*cfg.System); err != nil {
			return nil, init, nil, err
		}
		sys.Law = law
		init = linsys.InitState(pos, vel, sys, *cfg.System)
	}

	if sys == nil {
		return nil, init, nil, fmt.Errorf("config needs a scenario or a system")
	}

	if cfg.InitState != nil {
		init = init.Clone()
		place(init.X, cfg.InitState.Pos, cfg.InitState.Vel)
		if init.Mu != nil {
			place(init.Mu, cfg.InitState.Pos, cfg.InitState.Vel)
		}
	}

	if cfg.Controller != nil {
		law, err := BuildLaw(cfg.Controller, sys)
		if err != nil {
			return nil, init, nil, err
		}
		sys.Law = law
	}

	return sys, init, scenario, nil
}

// BuildLaw creates the control law a controller config describes.
func BuildLaw(cc *config.ControllerConfig, sys *linsys.System) (linsys.ControlLaw, error) {
	if err := cc.Validate(); err != nil {
		return linsys.ControlLaw{}, err
	}

	switch cc.Type {
	case config.ControllerZero:
		return linsys.Callback(control.NewZero()), nil
	case config.ControllerConstant:
		return linsys.Callback(control.NewManual(cc.Value)), nil
	case config.ControllerPulse:
		return linsys.Callback(control.NewPulse(cc.Start, cc.Duration, sys.Dt)), nil
	case config.ControllerPID:
		return linsys.Callback(control.NewPID(cc.Kp, cc.Ki, cc.Kd, cc.Target)), nil
	case config.ControllerGain:
		return linsys.StaticGain(mat.NewDense(1, len(cc.K), append([]float64(nil), cc.K...))), nil
	case config.ControllerLQR:
		lqr, err := control.DesignLQR(sys, control.Weights(sys.N(), cc.QPos, cc.QVel), control.Weights(1, cc.R))
		if err != nil {
			return linsys.ControlLaw{}, fmt.Errorf("lqr gain: %w", err)
		}
		return lqr.Law(), nil
	}
	return linsys.ControlLaw{}, fmt.Errorf("unknown controller type %q", cc.Type)
}

// Stiffness recovers the spring constant folded into A.
func Stiffness(sys *linsys.System) float64 {
	return -sys.A.At(1, 0) / sys.Dt
}

func buildMetrics(names []string, sys *linsys.System) ([]sim.Metric, error) {
	if len(names) == 0 {
		return metrics.Standard(), nil
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := metrics.New(name, Stiffness(sys))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func place(v *mat.VecDense, pos, vel float64) {
	v.SetVec(0, pos)
	v.SetVec(1, vel)
}
