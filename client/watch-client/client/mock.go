package client

import (
	"context"
	"sync"
)

// MockAnalysisServerClient is a mock implementation for testing
type MockAnalysisServerClient struct {
	mu sync.Mutex

	// Scripted behavior
	ProcessVideoErr   error
	ProgressTicks     []int // percentages emitted before ProcessVideo returns
	Gate              chan struct{} // if non-nil, ProcessVideo blocks on it after emitting ticks
	ValidateCameraMsg string
	ValidateCameraErr error
	LoginSession      *Session
	LoginErr          error
	RegisterErr       error

	// Recorded calls
	ProcessVideoCalls   []ProcessVideoRequest
	ValidateCameraCalls []string
	LoginCalls          []string
	RegisterCalls       []string
}

// NewMockAnalysisServerClient creates a new mock client for testing
func NewMockAnalysisServerClient() *MockAnalysisServerClient {
	return &MockAnalysisServerClient{}
}

// ProcessVideo records the request, replays the scripted progress ticks and
// returns the scripted error, optionally blocking on Gate first.
func (m *MockAnalysisServerClient) ProcessVideo(ctx context.Context, request ProcessVideoRequest, onProgress func(percent int)) error {
	m.mu.Lock()
	m.ProcessVideoCalls = append(m.ProcessVideoCalls, request)
	ticks := m.ProgressTicks
	gate := m.Gate
	err := m.ProcessVideoErr
	m.mu.Unlock()

	for _, pct := range ticks {
		if onProgress != nil {
			onProgress(pct)
		}
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// ValidateCamera records the URL and returns the scripted outcome.
func (m *MockAnalysisServerClient) ValidateCamera(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidateCameraCalls = append(m.ValidateCameraCalls, url)
	return m.ValidateCameraMsg, m.ValidateCameraErr
}

// Login records the username and returns the scripted session.
func (m *MockAnalysisServerClient) Login(ctx context.Context, username, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoginCalls = append(m.LoginCalls, username)
	return m.LoginSession, m.LoginErr
}

// Register records the username and returns the scripted error.
func (m *MockAnalysisServerClient) Register(ctx context.Context, username, password, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegisterCalls = append(m.RegisterCalls, username)
	return m.RegisterErr
}

// ProcessVideoCallCount returns how many uploads were attempted.
func (m *MockAnalysisServerClient) ProcessVideoCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ProcessVideoCalls)
}

// ValidateCameraCallCount returns how many camera validations hit the mock.
func (m *MockAnalysisServerClient) ValidateCameraCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ValidateCameraCalls)
}
