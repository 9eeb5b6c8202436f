package config

import (
	"fmt"
	"os"

	"github.com/san-kum/linsim/internal/linsys"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScenario = "ice_block"
	DefaultTFinal   = linsys.DefaultTFinal
	DefaultSeed     = 1
	DefaultKp       = 10.0
	DefaultKi       = 0.1
	DefaultKd       = 5.0
	DefaultQPos     = 1.0
	DefaultQVel     = 1.0
	DefaultR        = 1.0
)

// Controller types understood by ControllerConfig.
const (
	ControllerZero     = "zero"
	ControllerConstant = "constant"
	ControllerPulse    = "pulse"
	ControllerPID      = "pid"
	ControllerGain     = "gain"
	ControllerLQR      = "lqr"
)

var controllerTypes = []string{
	ControllerZero, ControllerConstant, ControllerPulse,
	ControllerPID, ControllerGain, ControllerLQR,
}

// Config describes one run. A scenario supplies the system, initial state and
// control law; System, InitState and Controller override its pieces.
type Config struct {
	Scenario   string             `yaml:"scenario"`
	TFinal     float64            `yaml:"t_final"`
	Seed       int64              `yaml:"seed"`
	Values     map[string]float64 `yaml:"values,omitempty"`
	System     *linsys.Options    `yaml:"system,omitempty"`
	InitState  *InitStateConfig   `yaml:"init_state,omitempty"`
	Controller *ControllerConfig  `yaml:"controller,omitempty"`
	Metrics    []string           `yaml:"metrics,omitempty"`
}

type InitStateConfig struct {
	Pos float64 `yaml:"pos"`
	Vel float64 `yaml:"vel"`
}

type ControllerConfig struct {
	Type string `yaml:"type"`

	// constant
	Value float64 `yaml:"value,omitempty"`

	// pulse
	Start    float64 `yaml:"start,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`

	// pid
	Kp     float64 `yaml:"kp,omitempty"`
	Ki     float64 `yaml:"ki,omitempty"`
	Kd     float64 `yaml:"kd,omitempty"`
	Target float64 `yaml:"target,omitempty"`

	// gain
	K []float64 `yaml:"k,omitempty"`

	// lqr
	QPos float64 `yaml:"q_pos,omitempty"`
	QVel float64 `yaml:"q_vel,omitempty"`
	R    float64 `yaml:"r,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		TFinal:   DefaultTFinal,
		Seed:     DefaultSeed,
	}
}

// DefaultController returns the parameters used when a controller type is
// picked on the command line without further settings.
func DefaultController(kind string) *ControllerConfig {
	return &ControllerConfig{
		Type: kind,
		Kp:   DefaultKp,
		Ki:   DefaultKi,
		Kd:   DefaultKd,
		QPos: DefaultQPos,
		QVel: DefaultQVel,
		R:    DefaultR,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.TFinal < 0 {
		return fmt.Errorf("t_final must not be negative, got %v", c.TFinal)
	}
	if c.Scenario == "" && c.System == nil {
		return fmt.Errorf("config needs a scenario or a system")
	}
	if c.Controller != nil {
		return c.Controller.Validate()
	}
	return nil
}

func (c *ControllerConfig) Validate() error {
	for _, kind := range controllerTypes {
		if c.Type == kind {
			if kind == ControllerGain && len(c.K) == 0 {
				return fmt.Errorf("gain controller needs k")
			}
			if kind == ControllerLQR && c.R <= 0 {
				return fmt.Errorf("lqr controller needs r > 0, got %v", c.R)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown controller type %q", c.Type)
}

// ControllerTypes lists the accepted controller types.
func ControllerTypes() []string {
	out := make([]string, len(controllerTypes))
	copy(out, controllerTypes)
	return out
}
