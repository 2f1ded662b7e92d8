package analysis

import (
	"context"
	"sync"
)

// MockAnalyzer is a mock implementation for testing
type MockAnalyzer struct {
	mu sync.Mutex

	// Scripted behavior
	ProgressReports []ProgressUpdate
	Result          *Result
	Err             error

	// Recorded calls
	AnalyzeCalls []string
}

// NewMockAnalyzer creates a new mock analyzer for testing
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze records the call, replays the scripted progress reports and
// returns the scripted outcome.
func (m *MockAnalyzer) Analyze(ctx context.Context, path string, onProgress func(ProgressUpdate)) (*Result, error) {
	m.mu.Lock()
	m.AnalyzeCalls = append(m.AnalyzeCalls, path)
	reports := m.ProgressReports
	result := m.Result
	err := m.Err
	m.mu.Unlock()

	for _, report := range reports {
		if onProgress != nil {
			onProgress(report)
		}
	}

	return result, err
}

// AnalyzeCallCount returns how many analyses were started.
func (m *MockAnalyzer) AnalyzeCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AnalyzeCalls)
}
