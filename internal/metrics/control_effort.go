package metrics

import (
	"math"

	"github.com/san-kum/hoverlab/internal/control"
	"github.com/san-kum/hoverlab/internal/dynamo"
)

// ActuatorEffort is the mean absolute actuator change commanded per tick.
type ActuatorEffort struct {
	step    float64
	sum     float64
	samples int
}

func NewActuatorEffort(step float64) *ActuatorEffort {
	return &ActuatorEffort{step: step}
}

func (c *ActuatorEffort) Name() string { return "actuator_effort" }

func (c *ActuatorEffort) Observe(t dynamo.Transition) {
	c.sum += math.Abs(control.Delta(t.Action, c.step))
	c.samples++
}

func (c *ActuatorEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ActuatorEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Default is the metric set recorded for every training episode.
func Default(target, offset, step float64) []Metric {
	return []Metric{
		NewReturn(),
		NewMeanReward(),
		NewInBand(target, offset),
		NewActuatorEffort(step),
	}
}
