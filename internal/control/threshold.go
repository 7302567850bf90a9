package control

import (
	"fmt"

	"github.com/san-kum/hoverlab/internal/dynamo"
)

// Threshold is a bang-bang regulator: every tick it moves one actuator by a
// fixed step, up while the quantity and its rate are both under their
// bounds and down otherwise. It has no integral term and oscillates around
// the bound.
type Threshold struct {
	Quantity        string
	Actuator        string
	QuantityBound   float64
	DerivativeBound float64
	Step            float64
}

func NewThreshold(quantity, actuator string, quantityBound, derivativeBound, step float64) *Threshold {
	return &Threshold{
		Quantity:        quantity,
		Actuator:        actuator,
		QuantityBound:   quantityBound,
		DerivativeBound: derivativeBound,
		Step:            step,
	}
}

// Decide returns the signed actuator increment for the current sample.
func (c *Threshold) Decide(current, before, dt float64) float64 {
	derivative := (current - before) / dt
	if current < c.QuantityBound && derivative < c.DerivativeBound {
		return c.Step
	}
	return -c.Step
}

// Regulate samples the quantity, nudges the actuator and returns the sample,
// which becomes the caller's before value for the next tick.
func (c *Threshold) Regulate(v dynamo.Vessel, before, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, dynamo.ErrNonPositiveDt
	}
	current, err := v.Flight(c.Quantity)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c.Quantity, err)
	}
	if err := dynamo.Nudge(v, c.Actuator, c.Decide(current, before, dt)); err != nil {
		return 0, fmt.Errorf("set %s: %w", c.Actuator, err)
	}
	return current, nil
}

// GetParams returns tunable parameters for live adjustment
func (c *Threshold) GetParams() map[string]float64 {
	return map[string]float64{
		"QuantityBound":   c.QuantityBound,
		"DerivativeBound": c.DerivativeBound,
		"Step":            c.Step,
	}
}

// SetParam adjusts a regulator parameter
func (c *Threshold) SetParam(name string, value float64) error {
	switch name {
	case "QuantityBound":
		c.QuantityBound = value
	case "DerivativeBound":
		c.DerivativeBound = value
	case "Step":
		c.Step = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
