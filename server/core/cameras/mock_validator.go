package cameras

import (
	"context"
	"sync"
)

// MockStreamValidator is a mock implementation for testing
type MockStreamValidator struct {
	mu sync.Mutex

	// Scripted behavior
	Err error

	// Recorded calls
	ValidateCalls []string
}

// NewMockStreamValidator creates a new mock validator for testing
func NewMockStreamValidator() *MockStreamValidator {
	return &MockStreamValidator{}
}

// Validate records the URL and returns the scripted error.
func (m *MockStreamValidator) Validate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidateCalls = append(m.ValidateCalls, url)
	return m.Err
}
