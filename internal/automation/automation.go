package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/linsim/internal/config"
	"github.com/san-kum/linsim/internal/experiment"
	"github.com/san-kum/linsim/internal/linsys"
	"github.com/san-kum/linsim/internal/logging"
	"github.com/san-kum/linsim/internal/metrics"
	"github.com/san-kum/linsim/internal/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Script defines a multi-stage simulation sequence
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Stages      []Stage `yaml:"stages"`
}

// Stage is one run in a script. With Continue set it starts from the final
// state of the previous stage instead of the scenario's initial state.
type Stage struct {
	Name       string                   `yaml:"name"`
	Scenario   string                   `yaml:"scenario"`
	Values     map[string]float64       `yaml:"values,omitempty"`
	System     *linsys.Options          `yaml:"system,omitempty"`
	InitState  *config.InitStateConfig  `yaml:"init_state,omitempty"`
	Controller *config.ControllerConfig `yaml:"controller,omitempty"`
	TFinal     float64                  `yaml:"t_final"`
	Seed       int64                    `yaml:"seed"`
	Continue   bool                     `yaml:"continue"`
}

// StageResult pairs a stage with its output.
type StageResult struct {
	Stage  Stage
	Result *sim.Result
}

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Stages) == 0 {
		return nil, fmt.Errorf("%s: script has no stages", path)
	}
	if script.Stages[0].Continue {
		return nil, fmt.Errorf("%s: first stage cannot continue", path)
	}

	return &script, nil
}

type Runner struct {
	registry *experiment.Registry
	logger   *slog.Logger
	events   *logging.EventLog
}

func NewRunner(registry *experiment.Registry) *Runner {
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	return &Runner{registry: registry, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetEventLog records one event per finished stage. A nil log is fine.
func (r *Runner) SetEventLog(events *logging.EventLog) {
	r.events = events
}

// Run executes all stages in order and stops at the first failure, returning
// the results gathered so far.
func (r *Runner) Run(ctx context.Context, script *Script) ([]StageResult, error) {
	results := make([]StageResult, 0, len(script.Stages))
	var prev *sim.Result

	for i, stage := range script.Stages {
		r.logger.Info("running stage", "index", i+1, "of", len(script.Stages), "name", stage.Name, "scenario", stage.Scenario)

		cfg := &config.Config{
			Scenario:   stage.Scenario,
			TFinal:     stage.TFinal,
			Seed:       stage.Seed,
			Values:     stage.Values,
			System:     stage.System,
			InitState:  stage.InitState,
			Controller: stage.Controller,
		}
		sys, init, scenario, err := experiment.Assemble(cfg, r.registry)
		if err != nil {
			return results, fmt.Errorf("stage %d setup: %w", i+1, err)
		}

		if stage.Continue {
			if prev == nil {
				return results, fmt.Errorf("stage %d: nothing to continue from", i+1)
			}
			init = carryOver(prev.Final, init, sys.Filtering())
		}

		s := sim.New(sys)
		s.SetLogger(r.logger)
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, init, sim.Config{TFinal: stage.TFinal, Seed: stage.Seed})
		if err != nil {
			return results, fmt.Errorf("stage %d run: %w", i+1, err)
		}
		if scenario != nil && scenario.HideForce && stage.Controller == nil {
			result.Force.Hidden = true
		}

		r.logger.Log(ctx, logging.LevelTrace, "stage finished", "index", i+1, "final_x", fmt.Sprint(result.Final.X.RawVector().Data))
		r.events.Log(map[string]any{
			"stage":     i + 1,
			"name":      stage.Name,
			"scenario":  stage.Scenario,
			"continue":  stage.Continue,
			"ticks":     result.Ticks,
			"final_pos": result.Final.Pos(),
			"final_vel": result.Final.Vel(),
			"metrics":   result.Metrics,
		})

		results = append(results, StageResult{Stage: stage, Result: result})
		prev = result
	}

	return results, nil
}

// carryOver starts from the previous final state. The estimate and its
// covariance carry over only when both stages filter.
func carryOver(prev, fresh linsys.State, filtering bool) linsys.State {
	next := prev.Clone()
	if !filtering {
		next.Mu = nil
		next.P = nil
		return next
	}
	if next.P == nil {
		next.Mu = mat.VecDenseCopyOf(next.X)
		next.P = fresh.P
	}
	return next
}

// ParameterSweep runs a scenario across a range of one value
type ParameterSweep struct {
	Scenario  string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	TFinal    float64
	Seed      int64
	Metric    string
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	FinalPos    float64
	FinalVel    float64
	MetricValue float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	scenario, err := registry.Get(sweep.Scenario)
	if err != nil {
		return nil, err
	}
	if _, ok := scenario.Param(sweep.ParamName); !ok {
		return nil, fmt.Errorf("scenario %s has no value %q", sweep.Scenario, sweep.ParamName)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := &config.Config{
			Scenario: sweep.Scenario,
			TFinal:   sweep.TFinal,
			Seed:     sweep.Seed,
			Values:   map[string]float64{sweep.ParamName: paramVal},
		}
		if sweep.Metric != "" {
			cfg.Metrics = []string{sweep.Metric}
		}

		exp := experiment.New(cfg, registry)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue:  paramVal,
			FinalPos:    result.Final.Pos(),
			FinalVel:    result.Final.Vel(),
			MetricValue: result.Metrics[sweep.Metric],
		})
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Scenario     string
	Values       map[string]float64
	Perturbation float64
	NumTrials    int
	TFinal       float64
	Seed         int64
	Bound        float64
}

// MonteCarloResult holds one perturbed trial
type MonteCarloResult struct {
	TrialID  int
	InitPos  float64
	InitVel  float64
	FinalPos float64
	FinalVel float64
	Stable   bool // |pos| and |vel| ended within Bound
}

// RunMonteCarlo executes trials with uniformly perturbed initial position
// and velocity. Trial i also uses noise seed Seed+i.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if registry == nil {
		registry = experiment.NewRegistry()
	}
	scenario, err := registry.Get(cfg.Scenario)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = 1e6
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		sys, init, err := scenario.Build(cfg.Values)
		if err != nil {
			return nil, err
		}

		pos := init.Pos() + (rng.Float64()-0.5)*2*cfg.Perturbation
		vel := init.Vel() + (rng.Float64()-0.5)*2*cfg.Perturbation
		init.X.SetVec(0, pos)
		init.X.SetVec(1, vel)
		if init.Mu != nil {
			init.Mu.SetVec(0, pos)
			init.Mu.SetVec(1, vel)
		}

		result, err := sim.New(sys).Run(ctx, init, sim.Config{TFinal: cfg.TFinal, Seed: cfg.Seed + int64(trial)})
		if err != nil {
			return nil, err
		}

		fp, fv := result.Final.Pos(), result.Final.Vel()
		results = append(results, MonteCarloResult{
			TrialID:  trial,
			InitPos:  pos,
			InitVel:  vel,
			FinalPos: fp,
			FinalVel: fv,
			Stable:   fp <= bound && fp >= -bound && fv <= bound && fv >= -bound,
		})
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
