package client

import "fmt"

// ValidationError represents bad local input that never reached the network,
// such as a non-video file, an oversized file or an empty camera URL.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a new ValidationError
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidationError checks if the error is a ValidationError
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// TransportError represents a request that failed or returned a non-success
// status. The Reason carries the server's error message when one could be
// parsed from the response body.
type TransportError struct {
	Reason     string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Reason, e.StatusCode)
	}
	return e.Reason
}

// NewTransportError creates a new TransportError
func NewTransportError(reason string, statusCode int) *TransportError {
	return &TransportError{Reason: reason, StatusCode: statusCode}
}

// IsTransportError checks if the error is a TransportError
func IsTransportError(err error) bool {
	_, ok := err.(*TransportError)
	return ok
}
