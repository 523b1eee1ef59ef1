package config

import "sort"

// Presets are named starting points; flags and config files override them.
var Presets = map[string]func() *Config{
	// faithful keeps the stock drivetrain constants, including the
	// 5-rotation dead band.
	"faithful": DefaultConfig,
	"precise": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller.DeadBand = 0.05
		cfg.Controller.MaxTicks = 20000
		return cfg
	},
	"drifty": func() *Config {
		cfg := DefaultConfig()
		cfg.Strategy = "straight"
		cfg.Controller.DeadBand = 0.1
		cfg.Controller.MaxTicks = 20000
		cfg.Plant.SlaveEfficiency = 0.85
		return cfg
	},
	"noisy": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller.DeadBand = 0.1
		cfg.Controller.MaxTicks = 20000
		cfg.Plant.Noise = 0.05
		cfg.Plant.Seed = 1
		return cfg
	},
	"field_tile": func() *Config {
		cfg := DefaultConfig()
		cfg.Distance = 24
		cfg.Controller.DeadBand = 0.1
		cfg.Controller.MaxTicks = 20000
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
