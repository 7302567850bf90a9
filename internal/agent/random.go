package agent

import (
	"github.com/san-kum/hoverlab/internal/dynamo"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Random picks every action with equal probability.
type Random struct {
	memory
	rand rand.Source
}

func NewRandom(seed int64) *Random {
	return &Random{rand: source(seed)}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Act(dynamo.Observation) dynamo.Action {
	weights := make([]float64, dynamo.ActionCount)
	for i := range weights {
		weights[i] = 1
	}
	i, ok := sampleuv.NewWeighted(weights, r.rand).Take()
	if !ok {
		return dynamo.Hold
	}
	return dynamo.Action(i)
}

func (r *Random) Save(dir string) error {
	return save(dir, r.Name(), nil, r.stats)
}
