package agent

import (
	"fmt"
	"math"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Heuristic pitches toward the target using the first derivative to
// project the tracked quantity Horizon seconds ahead. Inside the deadband
// it holds.
type Heuristic struct {
	memory
	Target   float64
	Deadband float64
	Horizon  float64
}

func NewHeuristic(target, deadband, horizon float64) *Heuristic {
	return &Heuristic{
		Target:   target,
		Deadband: deadband,
		Horizon:  horizon,
	}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Act(obs dynamo.Observation) dynamo.Action {
	tower := obs.Tower()
	if len(tower) == 0 {
		return dynamo.Hold
	}
	projected := tower[0]
	if len(tower) > 1 {
		projected += tower[1] * h.Horizon
	}
	switch {
	case projected < h.Target-h.Deadband:
		return dynamo.Increase
	case projected > h.Target+h.Deadband:
		return dynamo.Decrease
	default:
		return dynamo.Hold
	}
}

func (h *Heuristic) GetParams() map[string]float64 {
	return map[string]float64{
		"target":   h.Target,
		"deadband": h.Deadband,
		"horizon":  h.Horizon,
	}
}

func (h *Heuristic) SetParam(name string, value float64) error {
	switch name {
	case "target":
		h.Target = value
	case "deadband":
		h.Deadband = value
	case "horizon":
		h.Horizon = value
	default:
		return fmt.Errorf("unknown heuristic parameter: %s", name)
	}
	return nil
}

func (h *Heuristic) Save(dir string) error {
	return save(dir, h.Name(), h.GetParams(), h.stats)
}

// Softmax samples around the heuristic's choice. The preferred action has
// preference 1 and the others 0; lower temperatures follow the heuristic
// more closely.
type Softmax struct {
	*Heuristic
	Temperature float64
	rand        rand.Source
}

func NewSoftmax(h *Heuristic, temperature float64, seed int64) *Softmax {
	return &Softmax{
		Heuristic:   h,
		Temperature: temperature,
		rand:        source(seed),
	}
}

func (s *Softmax) Name() string { return "softmax" }

// Weights returns the sampling distribution for obs.
func (s *Softmax) Weights(obs dynamo.Observation) []float64 {
	preferred := s.Heuristic.Act(obs)
	weights := make([]float64, dynamo.ActionCount)
	sum := 0.0
	for i := range weights {
		pref := 0.0
		if dynamo.Action(i) == preferred {
			pref = 1
		}
		weights[i] = math.Exp(pref / s.Temperature)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func (s *Softmax) Act(obs dynamo.Observation) dynamo.Action {
	if s.Temperature <= 0 {
		return s.Heuristic.Act(obs)
	}
	i, ok := sampleuv.NewWeighted(s.Weights(obs), s.rand).Take()
	if !ok {
		return dynamo.Hold
	}
	return dynamo.Action(i)
}

func (s *Softmax) Save(dir string) error {
	params := s.GetParams()
	params["temperature"] = s.Temperature
	return save(dir, s.Name(), params, s.stats)
}
