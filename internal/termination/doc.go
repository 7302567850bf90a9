// Package termination decides when an episode ends and which one-time
// penalty the terminating tick carries.
package termination
