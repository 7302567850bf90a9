package control

import "github.com/san-kum/hoverlab/internal/dynamo"

// Delta maps a discrete action to an actuator increment. Actions outside
// the defined set are not validated and map to no change.
func Delta(a dynamo.Action, step float64) float64 {
	switch a {
	case dynamo.Increase:
		return step
	case dynamo.Decrease:
		return -step
	default:
		return 0
	}
}

// ApplyAction moves the named actuator by the action's increment. Hold
// leaves the actuator untouched.
func ApplyAction(a dynamo.Actuator, name string, action dynamo.Action, step float64) error {
	d := Delta(action, step)
	if d == 0 {
		return nil
	}
	return dynamo.Nudge(a, name, d)
}
