// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Capture   CaptureConfig   `yaml:"capture"`
	Planner   PlannerConfig   `yaml:"planner"`
	Reward    RewardConfig    `yaml:"reward"`
	Agents    AgentsConfig    `yaml:"agents"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived holds values computed after loading; never read from YAML.
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world-bound and integration-rate settings.
type WorldConfig struct {
	StepsPerSecond int     `yaml:"steps_per_second"`
	Width          float64 `yaml:"width"`
	Length         float64 `yaml:"length"`
	Height         float64 `yaml:"height"`
	HardDeck       float64 `yaml:"hard_deck"`
}

// PhysicsConfig holds the point-mass model's kinematic constants.
type PhysicsConfig struct {
	G float64 `yaml:"g"`
	L float64 `yaml:"l"`
}

// CaptureConfig holds the capture detector's thresholds.
type CaptureConfig struct {
	Radius       float64 `yaml:"radius"`
	PointSteps   int     `yaml:"point_steps"`
	HoldTicks    int     `yaml:"hold_ticks"`
	AngleDegrees float64 `yaml:"angle_degrees"`
}

// PlannerConfig holds the per-agent MDP planner's horizon and action grid.
type PlannerConfig struct {
	ForwardProjectionSteps int         `yaml:"forward_projection_steps"`
	ThrustRange            RangeConfig `yaml:"thrust_range"`
	AttackAngleRateRange   RangeConfig `yaml:"attack_angle_rate_range"`
	RollAngleRateRange     RangeConfig `yaml:"roll_angle_rate_range"`
}

// RangeConfig describes a half-open [Start, Stop) arange with a Step.
type RangeConfig struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Step  float64 `yaml:"step"`
}

// RewardConfig holds the shaped-reward parameters.
type RewardConfig struct {
	ThreatTimesteps []float64 `yaml:"threat_timesteps"`
	Magnitude       float64   `yaml:"magnitude"`
	Discount        float64   `yaml:"discount"`
	Penalty         float64   `yaml:"penalty"`
}

// AgentsConfig holds agent-count and initial-condition settings.
type AgentsConfig struct {
	N       int            `yaml:"n"`
	Initial []InitialAgent `yaml:"initial"`
}

// InitialAgent is one agent's hard-coded initial kinematic state.
type InitialAgent struct {
	Position        [3]float64 `yaml:"position"`
	Speed           float64    `yaml:"speed"`
	AttackAngle     float64    `yaml:"attack_angle"`
	FlightPathAngle float64    `yaml:"flight_path_angle"`
	RollAngle       float64    `yaml:"roll_angle"`
	AzimuthAngle    float64    `yaml:"azimuth_angle"`
}

// TelemetryConfig holds telemetry/perf-collector settings.
type TelemetryConfig struct {
	PerfWindowTicks int `yaml:"perf_window_ticks"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT             float64 // 1 / World.StepsPerSecond
	CaptureRadius2 float64 // Capture.Radius squared
	CaptureAngle   float64 // Capture.AngleDegrees in radians
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()
	return cfg, nil
}

// Validate checks the configuration errors this package treats as fatal:
// non-positive agent count, non-positive dt, or an empty action grid axis.
func (c *Config) Validate() error {
	if c.Agents.N <= 0 {
		return fmt.Errorf("config: agents.n must be > 0, got %d", c.Agents.N)
	}
	if c.World.StepsPerSecond <= 0 {
		return fmt.Errorf("config: world.steps_per_second must be > 0, got %d", c.World.StepsPerSecond)
	}
	ranges := map[string]RangeConfig{
		"thrust_range":            c.Planner.ThrustRange,
		"attack_angle_rate_range": c.Planner.AttackAngleRateRange,
		"roll_angle_rate_range":   c.Planner.RollAngleRateRange,
	}
	for name, r := range ranges {
		if r.Step <= 0 {
			return fmt.Errorf("config: planner.%s.step must be > 0, got %v", name, r.Step)
		}
		if r.Stop <= r.Start {
			return fmt.Errorf("config: planner.%s must have stop > start", name)
		}
	}
	return nil
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT = 1.0 / float64(c.World.StepsPerSecond)
	c.Derived.CaptureRadius2 = c.Capture.Radius * c.Capture.Radius
	c.Derived.CaptureAngle = c.Capture.AngleDegrees * math.Pi / 180
}

// WriteYAML writes the configuration to path, for run reproducibility
// alongside a trace directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
