package agent

import (
	"fmt"
	"sort"

	"github.com/san-kum/hoverlab/internal/config"
)

const (
	DefaultHorizon     = 1.0
	DefaultTemperature = 0.5
)

type Factory func(cfg *config.Config) Agent

type Registry struct {
	agents map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{agents: make(map[string]Factory)}

	r.agents["random"] = func(cfg *config.Config) Agent {
		return NewRandom(cfg.Seed)
	}
	r.agents["heuristic"] = func(cfg *config.Config) Agent {
		return heuristicFor(cfg)
	}
	r.agents["softmax"] = func(cfg *config.Config) Agent {
		return NewSoftmax(heuristicFor(cfg), DefaultTemperature, cfg.Seed)
	}

	return r
}

func heuristicFor(cfg *config.Config) *Heuristic {
	return NewHeuristic(cfg.TargetQuantity, cfg.TargetOffset/3, DefaultHorizon)
}

func (r *Registry) Register(name string, fn Factory) {
	r.agents[name] = fn
}

func (r *Registry) Get(name string, cfg *config.Config) (Agent, error) {
	fn, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
