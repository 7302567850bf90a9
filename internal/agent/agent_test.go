package agent

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"gopkg.in/yaml.v3"
)

func TestRandomCoversActions(t *testing.T) {
	r := NewRandom(7)
	seen := make(map[dynamo.Action]int)
	for i := 0; i < 300; i++ {
		a := r.Act(dynamo.Observation{0, 100, 0, 0})
		if a < 0 || int(a) >= dynamo.ActionCount {
			t.Fatalf("action %d out of range", a)
		}
		seen[a]++
	}
	if len(seen) != dynamo.ActionCount {
		t.Errorf("expected all %d actions, saw %v", dynamo.ActionCount, seen)
	}
}

func TestRandomSeeded(t *testing.T) {
	a, b := NewRandom(42), NewRandom(42)
	for i := 0; i < 50; i++ {
		if a.Act(nil) != b.Act(nil) {
			t.Fatalf("step %d: same seed produced different actions", i)
		}
	}
}

func TestHeuristic(t *testing.T) {
	h := NewHeuristic(100, 5, 1)

	tests := []struct {
		name     string
		obs      dynamo.Observation
		expected dynamo.Action
	}{
		{"below target", dynamo.Observation{0, 50, 0, 0}, dynamo.Increase},
		{"above target", dynamo.Observation{0, 150, 0, 0}, dynamo.Decrease},
		{"on target", dynamo.Observation{0, 100, 0, 0}, dynamo.Hold},
		{"below but climbing fast", dynamo.Observation{0, 80, 30, 0}, dynamo.Decrease},
		{"above but falling", dynamo.Observation{0, 110, -12, 0}, dynamo.Hold},
		{"tower only", dynamo.Observation{0, 20}, dynamo.Increase},
		{"empty", dynamo.Observation{0}, dynamo.Hold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Act(tt.obs); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSoftmaxWeights(t *testing.T) {
	s := NewSoftmax(NewHeuristic(100, 5, 1), 0.5, 1)
	w := s.Weights(dynamo.Observation{0, 50, 0, 0})

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("expected weights to sum to 1, got %f", sum)
	}
	if w[dynamo.Increase] <= w[dynamo.Hold] || w[dynamo.Hold] != w[dynamo.Decrease] {
		t.Errorf("expected increase to be preferred, got %v", w)
	}
}

func TestSoftmaxZeroTemperatureFollowsHeuristic(t *testing.T) {
	s := NewSoftmax(NewHeuristic(100, 5, 1), 0, 1)
	for i := 0; i < 20; i++ {
		if a := s.Act(dynamo.Observation{0, 150, 0, 0}); a != dynamo.Decrease {
			t.Fatalf("expected decrease, got %v", a)
		}
	}
}

func TestStatsAndSave(t *testing.T) {
	s := NewSoftmax(NewHeuristic(100, 5, 1), 0.5, 1)
	s.Remember(dynamo.Transition{})
	s.Remember(dynamo.Transition{})
	if err := s.Learn(); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	stats := s.Stats()
	if stats.Remembered != 2 || stats.LearnSteps != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	dir := filepath.Join(t.TempDir(), "models")
	if err := s.Save(dir); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "agent.yaml"))
	if err != nil {
		t.Fatalf("read snapshot failed: %v", err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot failed: %v", err)
	}
	if snap.Agent != "softmax" || snap.Params["temperature"] != 0.5 || snap.Stats.LearnSteps != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	cfg := config.DefaultConfig()

	names := r.List()
	expected := []string{"heuristic", "random", "softmax"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, names)
		}
		a, err := r.Get(names[i], cfg)
		if err != nil {
			t.Fatalf("get %s failed: %v", names[i], err)
		}
		if a.Name() != names[i] {
			t.Errorf("expected agent %s, got %s", names[i], a.Name())
		}
	}

	if _, err := r.Get("dqn", cfg); err == nil {
		t.Error("expected error for unknown agent")
	}
}

func TestHeuristicParams(t *testing.T) {
	h := NewHeuristic(100, 5, 1)
	for name, v := range map[string]float64{"target": 30, "deadband": 2, "horizon": 0.5} {
		if err := h.SetParam(name, v); err != nil {
			t.Fatalf("set %s failed: %v", name, err)
		}
	}
	if got := h.GetParams(); got["target"] != 30 || got["deadband"] != 2 || got["horizon"] != 0.5 {
		t.Errorf("unexpected params %v", got)
	}
	if err := h.SetParam("gain", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}
