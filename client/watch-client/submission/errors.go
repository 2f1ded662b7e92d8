package submission

import "fmt"

// InvalidTransitionError indicates an operation was attempted from a phase
// that does not permit it. The state machine stays in its current phase;
// this is a usage error that is logged, not shown to the user.
type InvalidTransitionError struct {
	Op   string
	From Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s while %s", e.Op, e.From)
}

// NewInvalidTransitionError creates a new InvalidTransitionError
func NewInvalidTransitionError(op string, from Phase) *InvalidTransitionError {
	return &InvalidTransitionError{Op: op, From: from}
}

// IsInvalidTransitionError checks if the error is an InvalidTransitionError
func IsInvalidTransitionError(err error) bool {
	_, ok := err.(*InvalidTransitionError)
	return ok
}
