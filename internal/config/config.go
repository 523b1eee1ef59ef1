package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivectl/internal/control"
	"github.com/san-kum/drivectl/internal/sim"
	"github.com/san-kum/drivectl/internal/units"
)

const (
	DefaultStrategy   = "straight_pd"
	DefaultDistance   = 48.0
	DefaultPower      = 3.0
	DefaultIntegrator = "rk4"
	DefaultGain       = control.DefaultGain
	DefaultTickMs     = 2
	DefaultDeadBand   = control.DefaultDeadBand
)

type Config struct {
	Strategy   string           `yaml:"strategy"`
	Distance   float64          `yaml:"distance"`
	Power      float64          `yaml:"power"`
	Controller ControllerConfig `yaml:"controller"`
	Plant      PlantConfig      `yaml:"plant"`
	DebugLevel int              `yaml:"debug_level"`
}

type ControllerConfig struct {
	WheelCircumference float64 `yaml:"wheel_circumference"`
	KS                 float64 `yaml:"ks"`
	KP                 float64 `yaml:"kp"`
	KD                 float64 `yaml:"kd"`
	TickIntervalMs     float64 `yaml:"tick_interval_ms"`
	DeadBand           float64 `yaml:"dead_band"`
	MaxTicks           int     `yaml:"max_ticks"`
	TimeoutMs          int     `yaml:"timeout_ms"`
	InitialError       string  `yaml:"initial_error"` // zero | first
	AllowReverse       bool    `yaml:"allow_reverse"`
}

type PlantConfig struct {
	Integrator       string  `yaml:"integrator"`
	Tau              float64 `yaml:"tau"`
	MasterEfficiency float64 `yaml:"master_efficiency"`
	SlaveEfficiency  float64 `yaml:"slave_efficiency"`
	Noise            float64 `yaml:"noise"`
	Brake            float64 `yaml:"brake"`
	Substeps         int     `yaml:"substeps"`
	Seed             int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	plant := sim.DefaultConfig()
	return &Config{
		Strategy: DefaultStrategy,
		Distance: DefaultDistance,
		Power:    DefaultPower,
		Controller: ControllerConfig{
			WheelCircumference: units.WheelCircumference,
			KS:                 DefaultGain,
			KP:                 DefaultGain,
			KD:                 DefaultGain,
			TickIntervalMs:     DefaultTickMs,
			DeadBand:           DefaultDeadBand,
			InitialError:       "zero",
		},
		Plant: PlantConfig{
			Integrator:       DefaultIntegrator,
			Tau:              plant.Tau,
			MasterEfficiency: plant.MasterEfficiency,
			SlaveEfficiency:  plant.SlaveEfficiency,
			Noise:            plant.Noise,
			Brake:            plant.Brake,
			Substeps:         plant.Substeps,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base; keys missing from the file keep
// base's values. base is modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Validate checks values that cannot be caught by the controller at run
// time: names and plant parameters.
func (c *Config) Validate() error {
	if _, err := control.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := control.ParseInitialErrorPolicy(c.Controller.InitialError); err != nil {
		return err
	}
	if c.Controller.TickIntervalMs <= 0 {
		return fmt.Errorf("controller.tick_interval_ms must be > 0, got %g", c.Controller.TickIntervalMs)
	}
	if c.Debug() < 0 || c.Debug() > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.DebugLevel)
	}
	if err := c.SimConfig().Validate(); err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	return c.ControlConfig().Validate()
}

func (c *Config) Debug() int { return c.DebugLevel }

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Controller.TickIntervalMs * float64(time.Millisecond))
}

func (c *Config) ControlConfig() control.Config {
	policy, _ := control.ParseInitialErrorPolicy(c.Controller.InitialError)
	return control.Config{
		WheelCircumference: c.Controller.WheelCircumference,
		Gains: control.Gains{
			KS: c.Controller.KS,
			KP: c.Controller.KP,
			KD: c.Controller.KD,
		},
		TickInterval: c.TickInterval(),
		DeadBand:     c.Controller.DeadBand,
		MaxTicks:     c.Controller.MaxTicks,
		Timeout:      time.Duration(c.Controller.TimeoutMs) * time.Millisecond,
		InitialError: policy,
		AllowReverse: c.Controller.AllowReverse,
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Tau:              c.Plant.Tau,
		MasterEfficiency: c.Plant.MasterEfficiency,
		SlaveEfficiency:  c.Plant.SlaveEfficiency,
		Noise:            c.Plant.Noise,
		Brake:            c.Plant.Brake,
		Substeps:         c.Plant.Substeps,
		Seed:             c.Plant.Seed,
	}
}

// GetStrategy parses the configured strategy name.
func (c *Config) GetStrategy() (control.Strategy, error) {
	return control.ParseStrategy(c.Strategy)
}
