package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Objective scores one parameter assignment; higher is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point in order and returns the best one with
// the full trial log. Failed points are logged and skipped; a cancelled
// context stops the search.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(-1)}
	trials := make([]Trial, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		val, err := objective(ctx, params)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		trial := Trial{Params: params, Value: val, Err: err}
		trials = append(trials, trial)
		if err == nil && val > best.Value {
			best = trial
		}
		return nil
	})
	if err != nil {
		return best, trials, err
	}
	if best.Params == nil {
		return best, trials, fmt.Errorf("no grid point evaluated successfully")
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Rank sorts successful trials best first.
func Rank(trials []Trial) []Trial {
	out := make([]Trial, 0, len(trials))
	for _, t := range trials {
		if t.Err == nil {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}
