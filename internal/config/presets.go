package config

import (
	"sort"

	"github.com/san-kum/linsim/internal/linsys"
)

var Presets = map[string]map[string]*Config{
	"ice_block": {
		"early": {
			Scenario: "ice_block", TFinal: 10, Seed: 1,
			Values: map[string]float64{"first_time": 0.5, "first_duration": 0.2},
		},
		"long_push": {
			Scenario: "ice_block", TFinal: 10, Seed: 1,
			Values: map[string]float64{"first_time": 1.0, "first_duration": 2.0},
		},
	},
	"friction": {
		"sticky": {
			Scenario: "friction", TFinal: 10, Seed: 1,
			Values: map[string]float64{"beta": 2.0},
		},
		"slick": {
			Scenario: "friction", TFinal: 10, Seed: 1,
			Values: map[string]float64{"beta": 0.1},
		},
	},
	"springy": {
		"stiff": {
			Scenario: "springy", TFinal: 10, Seed: 1,
			Values: map[string]float64{"alpha": 8.0},
		},
		"soft": {
			Scenario: "springy", TFinal: 20, Seed: 1,
			Values: map[string]float64{"alpha": 0.5},
		},
	},
	"all_things": {
		"ringing": {
			Scenario: "all_things", TFinal: 10, Seed: 1,
			Values: map[string]float64{"alpha2": 6.0, "beta2": 0.2, "last_time": 3.0, "last_duration": 0.5},
		},
	},
	"noisy_block": {
		"trusting": {
			Scenario: "noisy_block", TFinal: 10, Seed: 1,
			System: &linsys.Options{
				PosProcessStddev: 0.1, VelProcessStddev: 0.01,
				PosMeasStddev: 0.01, VelMeasStddev: 0.001,
			},
		},
		"skeptical": {
			Scenario: "noisy_block", TFinal: 10, Seed: 1,
			System: &linsys.Options{
				PosProcessStddev: 0.1, VelProcessStddev: 0.01,
				PosMeasStddev: 0.5, VelMeasStddev: 0.1,
			},
		},
	},
	"lqr_block": {
		"aggressive": {
			Scenario: "lqr_block", TFinal: 10, Seed: 1,
			Values: map[string]float64{"q_pos": 10, "q_vel": 1, "r": 0.1},
		},
		"lazy": {
			Scenario: "lqr_block", TFinal: 20, Seed: 1,
			Values: map[string]float64{"q_pos": 0.1, "q_vel": 0.1, "r": 10},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies c deeply enough that edits never reach the preset table.
func (c *Config) Clone() *Config {
	out := *c
	if c.Values != nil {
		out.Values = make(map[string]float64, len(c.Values))
		for k, v := range c.Values {
			out.Values[k] = v
		}
	}
	if c.System != nil {
		sys := *c.System
		out.System = &sys
	}
	if c.InitState != nil {
		init := *c.InitState
		out.InitState = &init
	}
	if c.Controller != nil {
		ctrl := *c.Controller
		ctrl.K = append([]float64(nil), c.Controller.K...)
		out.Controller = &ctrl
	}
	out.Metrics = append([]string(nil), c.Metrics...)
	return &out
}
