package metrics

import "github.com/san-kum/hoverlab/internal/dynamo"

// Metric accumulates one per-episode figure from the transitions of an
// episode. Reset is called at the start of every episode.
type Metric interface {
	Name() string
	Observe(t dynamo.Transition)
	Value() float64
	Reset()
}

// Collect snapshots every metric by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
