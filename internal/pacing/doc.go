// Package pacing ties the control loop to wall-clock time.
//
// A [Pacer] approximates a fixed sampling frequency: when a tick arrives
// early it sleeps for the remainder of the interval, when it arrives late it
// reports the measured gap so derivative estimates use the true tick
// duration. [ManualClock] drives the same logic deterministically in tests.
package pacing
