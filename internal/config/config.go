package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBridgeURL          = "http://localhost:50080"
	DefaultTimeStep           = 0.005
	DefaultControlStep        = 0.02
	DefaultObservations       = 4
	DefaultQuantity           = "mean_altitude"
	DefaultControl            = "pitch"
	DefaultSpeedQuantity      = "speed"
	DefaultSpeedControl       = "throttle"
	DefaultCruiseSpeed        = 80.0
	DefaultCruiseAcceleration = 150.0
	DefaultTargetQuantity     = 100.0
	DefaultTargetOffset       = 15.0
	DefaultMaxRuntime         = 60.0
	DefaultOutOfBounds        = 5.0
	DefaultSettleDelay        = 2.0
	DefaultEpisodes           = 100
	DefaultLearnEvery         = 20
	DefaultAgent              = "random"
)

type Config struct {
	BridgeURL             string  `yaml:"bridge_url" json:"bridge_url"`
	TimeStep              float64 `yaml:"time_step" json:"time_step"`
	ControlStep           float64 `yaml:"control_step" json:"control_step"`
	Actions               int     `yaml:"actions" json:"actions"`
	Observations          int     `yaml:"observations" json:"observations"`
	Quantity              string  `yaml:"quantity" json:"quantity"`
	Control               string  `yaml:"control" json:"control"`
	SpeedQuantity         string  `yaml:"speed_quantity" json:"speed_quantity"`
	SpeedControl          string  `yaml:"speed_control" json:"speed_control"`
	CruiseSpeed           float64 `yaml:"cruise_speed" json:"cruise_speed"`
	CruiseAcceleration    float64 `yaml:"cruise_acceleration" json:"cruise_acceleration"`
	TargetQuantity        float64 `yaml:"target_quantity" json:"target_quantity"`
	TargetOffset          float64 `yaml:"target_offset" json:"target_offset"`
	MaxRuntime            float64 `yaml:"max_runtime" json:"max_runtime"`
	OutOfBoundsMultiplier float64 `yaml:"out_of_bounds_multiplier" json:"out_of_bounds_multiplier"`
	SettleDelay           float64 `yaml:"settle_delay" json:"settle_delay"`
	ZeroSpeedSlot         bool    `yaml:"zero_speed_slot" json:"zero_speed_slot"`
	Episodes              int     `yaml:"episodes" json:"episodes"`
	LearnEvery            int     `yaml:"learn_every" json:"learn_every"`
	Agent                 string  `yaml:"agent" json:"agent"`
	Seed                  int64   `yaml:"seed" json:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		BridgeURL:             DefaultBridgeURL,
		TimeStep:              DefaultTimeStep,
		ControlStep:           DefaultControlStep,
		Actions:               dynamo.ActionCount,
		Observations:          DefaultObservations,
		Quantity:              DefaultQuantity,
		Control:               DefaultControl,
		SpeedQuantity:         DefaultSpeedQuantity,
		SpeedControl:          DefaultSpeedControl,
		CruiseSpeed:           DefaultCruiseSpeed,
		CruiseAcceleration:    DefaultCruiseAcceleration,
		TargetQuantity:        DefaultTargetQuantity,
		TargetOffset:          DefaultTargetOffset,
		MaxRuntime:            DefaultMaxRuntime,
		OutOfBoundsMultiplier: DefaultOutOfBounds,
		SettleDelay:           DefaultSettleDelay,
		Episodes:              DefaultEpisodes,
		LearnEvery:            DefaultLearnEvery,
		Agent:                 DefaultAgent,
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
	switch {
	case c.TimeStep <= 0:
		return fmt.Errorf("%w: time_step must be positive, got %f", dynamo.ErrInvalidConfig, c.TimeStep)
	case c.Observations < 2:
		return fmt.Errorf("%w: observations must be at least 2, got %d", dynamo.ErrInvalidConfig, c.Observations)
	case c.Actions != dynamo.ActionCount:
		return fmt.Errorf("%w: actions must be %d, got %d", dynamo.ErrInvalidConfig, dynamo.ActionCount, c.Actions)
	case c.MaxRuntime <= 0:
		return fmt.Errorf("%w: max_runtime must be positive, got %f", dynamo.ErrInvalidConfig, c.MaxRuntime)
	case c.SettleDelay < 0:
		return fmt.Errorf("%w: settle_delay must not be negative, got %f", dynamo.ErrInvalidConfig, c.SettleDelay)
	}
	return nil
}

// Interval is the nominal tick interval.
func (c *Config) Interval() time.Duration {
	return seconds(c.TimeStep)
}

func (c *Config) Settle() time.Duration {
	return seconds(c.SettleDelay)
}

// TowerOrder is the highest derivative order in the observation.
func (c *Config) TowerOrder() int {
	return c.Observations - 2
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
