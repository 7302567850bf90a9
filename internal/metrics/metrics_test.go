package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/hoverlab/internal/dynamo"
)

func transition(action dynamo.Action, reward, altitude float64) dynamo.Transition {
	return dynamo.Transition{
		Action: action,
		Reward: reward,
		Next:   dynamo.Observation{0, altitude, 0, 0},
	}
}

func TestReturnAndMean(t *testing.T) {
	ret := NewReturn()
	mean := NewMeanReward()

	for _, r := range []float64{16, 10, -4} {
		tr := transition(dynamo.Hold, r, 100)
		ret.Observe(tr)
		mean.Observe(tr)
	}

	if ret.Value() != 22 {
		t.Errorf("expected return 22, got %f", ret.Value())
	}
	if math.Abs(mean.Value()-22.0/3) > 1e-12 {
		t.Errorf("expected mean %f, got %f", 22.0/3, mean.Value())
	}

	ret.Reset()
	mean.Reset()
	if ret.Value() != 0 || mean.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestInBand(t *testing.T) {
	tests := []struct {
		name      string
		altitudes []float64
		expected  float64
	}{
		{"all inside", []float64{100, 110, 85}, 1},
		{"half inside", []float64{100, 130}, 0.5},
		{"none inside", []float64{0, 300}, 0},
		{"no samples", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewInBand(100, 15)
			for _, alt := range tt.altitudes {
				m.Observe(transition(dynamo.Hold, 0, alt))
			}
			if m.Value() != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, m.Value())
			}
		})
	}
}

func TestInBandIgnoresShortObservation(t *testing.T) {
	m := NewInBand(100, 15)
	m.Observe(dynamo.Transition{Next: dynamo.Observation{0}})
	if m.Value() != 0 {
		t.Errorf("expected 0, got %f", m.Value())
	}
}

func TestActuatorEffort(t *testing.T) {
	m := NewActuatorEffort(0.02)
	for _, a := range []dynamo.Action{dynamo.Increase, dynamo.Hold, dynamo.Decrease, dynamo.Hold} {
		m.Observe(transition(a, 0, 100))
	}
	if math.Abs(m.Value()-0.01) > 1e-12 {
		t.Errorf("expected effort 0.01, got %f", m.Value())
	}
}

func TestCollect(t *testing.T) {
	ms := Default(100, 15, 0.02)
	for _, m := range ms {
		m.Observe(transition(dynamo.Increase, 16, 100))
	}

	got := Collect(ms)
	expected := map[string]float64{
		"return":          16,
		"mean_reward":     16,
		"in_band":         1,
		"actuator_effort": 0.02,
	}
	for name, v := range expected {
		if got[name] != v {
			t.Errorf("%s: expected %f, got %f", name, v, got[name])
		}
	}
}
