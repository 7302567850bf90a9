package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/hoverlab/internal/dynamo"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

// Agent picks pitch actions from observations. The trainer calls Remember
// after every step and Learn every learn_every steps; Save is called when
// the moving average score improves.
type Agent interface {
	Name() string
	Act(obs dynamo.Observation) dynamo.Action
	Remember(t dynamo.Transition)
	Learn() error
	Save(dir string) error
	Stats() Stats
}

type Stats struct {
	Remembered int `yaml:"remembered"`
	LearnSteps int `yaml:"learn_steps"`
}

// memory is the bookkeeping shared by the built-in policies. None of them
// learns; Learn only counts calls.
type memory struct {
	stats Stats
}

func (m *memory) Remember(dynamo.Transition) { m.stats.Remembered++ }

func (m *memory) Learn() error {
	m.stats.LearnSteps++
	return nil
}

func (m *memory) Stats() Stats { return m.stats }

type snapshot struct {
	Agent  string             `yaml:"agent"`
	Saved  time.Time          `yaml:"saved"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Stats  Stats              `yaml:"stats"`
}

// save writes the agent's parameters and counters to dir/agent.yaml.
func save(dir, name string, params map[string]float64, stats Stats) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(snapshot{
		Agent:  name,
		Saved:  time.Now().UTC(),
		Params: params,
		Stats:  stats,
	})
	if err != nil {
		return fmt.Errorf("encode %s agent: %w", name, err)
	}
	return os.WriteFile(filepath.Join(dir, "agent.yaml"), data, 0644)
}

// source seeds a generator; seed 0 picks a time-based seed.
func source(seed int64) rand.Source {
	if seed == 0 {
		return rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return rand.NewSource(uint64(seed))
}
