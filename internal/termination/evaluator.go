package termination

import "github.com/san-kum/hoverlab/internal/dynamo"

type Reason string

const (
	None        Reason = ""
	Inoperable  Reason = "inoperable"
	OutOfBounds Reason = "out of bounds"
	Timeout     Reason = "timeout"
)

func (r Reason) String() string {
	if r == None {
		return "running"
	}
	return string(r)
}

// DefaultOutOfBoundsMultiplier scales the target into the out-of-bounds
// ceiling.
const DefaultOutOfBoundsMultiplier = 5.0

type Input struct {
	CrewCount int
	Situation dynamo.Situation
	// Latest is the newest zeroth-order estimate of the tracked quantity.
	Latest  float64
	Elapsed float64
}

type Verdict struct {
	Done    bool
	Reason  Reason
	Penalty float64
}

type Evaluator struct {
	MaxRuntime            float64
	OutOfBoundsMultiplier float64
	Target                float64
	Penalty               float64
}

func NewEvaluator(maxRuntime, multiplier, target, penalty float64) *Evaluator {
	return &Evaluator{
		MaxRuntime:            maxRuntime,
		OutOfBoundsMultiplier: multiplier,
		Target:                target,
		Penalty:               penalty,
	}
}

// Check applies the termination conditions in priority order and stops at
// the first that holds: inoperable, out of bounds, timeout. A timeout is
// only penalized when the vessel never left the ground.
func (e *Evaluator) Check(in Input) Verdict {
	switch {
	case in.CrewCount == 0 || in.Situation == dynamo.Splashed:
		return Verdict{Done: true, Reason: Inoperable, Penalty: e.Penalty}
	case in.Latest > e.OutOfBoundsMultiplier*e.Target:
		return Verdict{Done: true, Reason: OutOfBounds, Penalty: e.Penalty}
	case in.Elapsed > e.MaxRuntime:
		v := Verdict{Done: true, Reason: Timeout}
		if in.Situation == dynamo.Landed {
			v.Penalty = e.Penalty
		}
		return v
	}
	return Verdict{}
}
