// Package reward shapes the per-tick scalar reward from the deviation of
// the tracked quantity from its target band.
package reward
