// Package control provides the actuator controllers of the episode loop.
//
//   - [Threshold]: fixed-step bang-bang regulator used for speed governance
//   - [ApplyAction]: maps the agent's discrete action onto an actuator
//
// # Usage
//
//	gov := control.NewThreshold("speed", "throttle", 80, 150, 0.02)
//	speed, err := gov.Regulate(vessel, prevSpeed, dt)
//	err = control.ApplyAction(vessel, "pitch", dynamo.Increase, 0.02)
//
// Threshold supports live tuning through GetParams/SetParam.
package control
