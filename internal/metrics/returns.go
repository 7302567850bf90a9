package metrics

import "github.com/san-kum/hoverlab/internal/dynamo"

// Return is the undiscounted episode score.
type Return struct {
	sum float64
}

func NewReturn() *Return { return &Return{} }

func (r *Return) Name() string { return "return" }

func (r *Return) Observe(t dynamo.Transition) {
	r.sum += t.Reward
}

func (r *Return) Value() float64 { return r.sum }

func (r *Return) Reset() { r.sum = 0 }

// MeanReward is the average per-tick reward. A terminal penalty lands on
// the last tick and dominates the mean of a failed episode.
type MeanReward struct {
	sum     float64
	samples int
}

func NewMeanReward() *MeanReward { return &MeanReward{} }

func (m *MeanReward) Name() string { return "mean_reward" }

func (m *MeanReward) Observe(t dynamo.Transition) {
	m.sum += t.Reward
	m.samples++
}

func (m *MeanReward) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanReward) Reset() {
	m.sum = 0
	m.samples = 0
}
