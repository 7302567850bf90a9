// Package dynamo provides the core types shared by the episode engine.
//
// The package defines the vectors exchanged with the agent and the
// capabilities consumed from the external simulator:
//
//   - [Observation]: speed slot followed by the derivative tower
//   - [Tower]: derivative estimates of the tracked quantity, orders 0..k
//   - [Action]: discrete pitch command (increase, hold, decrease)
//   - [Dialer], [Conn], [Vessel]: the simulator session and vessel handle
//
// # Example
//
//	conn, _ := dialer.Dial(ctx)
//	vessel, _ := conn.ActiveVessel(ctx)
//	alt, _ := vessel.Flight("mean_altitude")
//	_ = dynamo.Nudge(vessel, "pitch", 0.02)
//
// # Thread Safety
//
// Conn and Vessel handles are owned by a single episode session and are
// NOT safe for concurrent use.
package dynamo
