package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for episode operations.
var (
	// ErrSimulator indicates the external simulator could not be reached or
	// rejected a request. The session must be reset or rebuilt.
	ErrSimulator = errors.New("dynamo: simulator unavailable")

	// ErrNoVessel indicates the simulator has no active vessel.
	ErrNoVessel = errors.New("dynamo: no active vessel")

	// ErrNotActive indicates a step outside an active episode.
	ErrNotActive = errors.New("dynamo: episode not active (reset required)")

	// ErrInvalidOrder indicates a negative derivative order.
	ErrInvalidOrder = errors.New("dynamo: derivative order must be non-negative")

	// ErrNonPositiveDt indicates a tick duration that is zero or negative.
	ErrNonPositiveDt = errors.New("dynamo: tick duration must be positive")

	// ErrObservationLength indicates an observation of the wrong length.
	ErrObservationLength = errors.New("dynamo: observation length mismatch")

	// ErrInvalidConfig indicates a configuration value out of range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// StepError wraps an error with tick context.
type StepError struct {
	Tick    int
	Op      string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("tick %d: %s: %v", e.Tick, e.Op, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
