package auth

import (
	"sync"
	"time"
)

// FailureRecord represents a single failed login attempt
type FailureRecord struct {
	Username  string
	RemoteIP  string
	Timestamp time.Time
}

// FailureTracker tracks failed login attempts per account
type FailureTracker interface {
	// RecordFailure records a failed login and returns the current failure count within the time window
	RecordFailure(username string, remoteIP string, timestamp time.Time) int
	// ShouldThrottle returns true if the failure count exceeds the throttle threshold
	ShouldThrottle(failureCount int) bool
}

// ThrottleSettings holds configuration for login throttling
type ThrottleSettings struct {
	Threshold  int           // Number of failures that trigger throttling (0 to disable)
	TimeWindow time.Duration // Time window for counting failures
}

// nopFailureTracker is a no-operation implementation
type nopFailureTracker struct{}

var NopFailureTracker FailureTracker = &nopFailureTracker{}

func (n *nopFailureTracker) RecordFailure(username string, remoteIP string, timestamp time.Time) int {
	return 0
}

func (n *nopFailureTracker) ShouldThrottle(failureCount int) bool {
	return false
}

// memoryFailureTracker implements FailureTracker using in-memory storage
type memoryFailureTracker struct {
	settings      ThrottleSettings
	failures      []FailureRecord
	failuresMutex sync.Mutex
}

// NewMemoryFailureTracker creates a new in-memory failure tracker
func NewMemoryFailureTracker(settings ThrottleSettings) FailureTracker {
	return &memoryFailureTracker{
		settings: settings,
		failures: make([]FailureRecord, 0),
	}
}

func (t *memoryFailureTracker) ShouldThrottle(failureCount int) bool {
	return t.settings.Threshold > 0 && failureCount >= t.settings.Threshold
}

func (t *memoryFailureTracker) RecordFailure(username string, remoteIP string, timestamp time.Time) int {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	record := FailureRecord{
		Username:  username,
		RemoteIP:  remoteIP,
		Timestamp: timestamp,
	}
	t.failures = append(t.failures, record)

	// Drop records outside the time window
	cutoffTime := timestamp.Add(-t.settings.TimeWindow)
	validFailures := make([]FailureRecord, 0)
	for _, failure := range t.failures {
		if !failure.Timestamp.Before(cutoffTime) {
			validFailures = append(validFailures, failure)
		}
	}
	t.failures = validFailures

	// Count failures for this account within the window
	count := 0
	for _, failure := range t.failures {
		if failure.Username == username {
			count++
		}
	}

	return count
}
