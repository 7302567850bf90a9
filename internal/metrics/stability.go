package metrics

import (
	"math"

	"github.com/san-kum/hoverlab/internal/dynamo"
)

// InBand is the fraction of ticks whose tracked quantity stayed within
// offset of target. The quantity is the zeroth order of the tower.
type InBand struct {
	target  float64
	offset  float64
	inside  int
	samples int
}

func NewInBand(target, offset float64) *InBand {
	return &InBand{
		target: target,
		offset: offset,
	}
}

func (b *InBand) Name() string { return "in_band" }

func (b *InBand) Observe(t dynamo.Transition) {
	if len(t.Next) < 2 {
		return
	}
	b.samples++
	if math.Abs(t.Next[1]-b.target) <= b.offset {
		b.inside++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.inside) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.inside = 0
	b.samples = 0
}
