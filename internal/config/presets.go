package config

import "sort"

var Presets = map[string]*Config{
	"hover": DefaultConfig(),
	"low-hop": withOverrides(func(c *Config) {
		c.TargetQuantity = 30
		c.TargetOffset = 5
		c.MaxRuntime = 20
	}),
	"long-hold": withOverrides(func(c *Config) {
		c.MaxRuntime = 120
		c.Episodes = 50
	}),
	"coarse": withOverrides(func(c *Config) {
		c.TimeStep = 0.02
		c.ControlStep = 0.05
	}),
	"deep-tower": withOverrides(func(c *Config) {
		c.Observations = 6
		c.TimeStep = 0.01
	}),
}

func withOverrides(fn func(*Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
