package reward

import "math"

// Shaper maps the tracked quantity to a dense reward peaking at Target.
type Shaper struct {
	Target float64
	Offset float64
}

func NewShaper(target, offset float64) *Shaper {
	return &Shaper{Target: target, Offset: offset}
}

// Shape penalizes overshoot and undershoot symmetrically. The raw value is
// truncated toward zero and shifted by one, so the maximum is Offset+1 at
// q == Target and there is no lower bound.
func (s *Shaper) Shape(q float64) float64 {
	var r float64
	if q > s.Target {
		r = s.Target - q + s.Offset
	} else {
		r = q - s.Target + s.Offset
	}
	return math.Trunc(r) + 1
}

// Max is the best reward a single tick can earn.
func (s *Shaper) Max() float64 {
	return math.Trunc(s.Offset) + 1
}

// TerminalPenalty is the worst-case accumulated reward over a full episode,
// applied once on abnormal termination.
func TerminalPenalty(maxRuntime, timeStep, target, offset float64) float64 {
	return -1 * maxRuntime / timeStep * math.Abs(offset-target)
}
