// Package config loads the solver's configuration knobs from YAML, in an
// outer/inner two-pass viper+yaml shape.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outerConfig is the loosely-typed document viper reads off disk; "def"
// holds the actual solver knobs, re-marshaled into SolverConfig below.
// This indirection exists so a single config file can eventually carry
// more than one named section without SolverConfig needing to know about
// them.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// SolverConfig holds the knobs exposed at the core's external interface:
// the daily time budget, the solver's discount and convergence
// parameters, and display/heuristic settings.
type SolverConfig struct {
	Duration         int     `yaml:"duration"`
	Gamma            float64 `yaml:"gamma"`
	Epsilon          float64 `yaml:"epsilon"`
	RoundParam       int     `yaml:"round_param"`
	PointsPerHour    bool    `yaml:"points_per_hour"`
	DefaultTaskValue float64 `yaml:"default_task_value"`
}

// Defaults returns the configuration's documented defaults: gamma = 1.0,
// epsilon = 0.1, two digits of display precision.
func Defaults() SolverConfig {
	return SolverConfig{
		Duration:         480,
		Gamma:            1.0,
		Epsilon:          0.1,
		RoundParam:       2,
		PointsPerHour:    false,
		DefaultTaskValue: 1.0,
	}
}

// FromYaml reads a SolverConfig from a YAML file at path. The parsed
// fields are applied over Defaults(), so fields the file omits keep their
// documented default values.
func FromYaml(path string) (*SolverConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(spec, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WithDefaults fills any zero-valued Gamma/Epsilon/RoundParam with the
// documented defaults, matching the behavior of a config file that omits
// them entirely.
func (c *SolverConfig) WithDefaults() {
	defaults := Defaults()
	if c.Gamma == 0 {
		c.Gamma = defaults.Gamma
	}
	if c.Epsilon == 0 {
		c.Epsilon = defaults.Epsilon
	}
	if c.RoundParam == 0 {
		c.RoundParam = defaults.RoundParam
	}
}
