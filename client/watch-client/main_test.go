package main

import (
	"testing"

	"github.com/nvr-labs/crashwatch/client/watch-client/submission"
)

func drainTerminal(t *testing.T, l *consoleListener) {
	t.Helper()
	select {
	case <-l.terminal:
	default:
		t.Fatal("Expected terminal signal")
	}
}

func TestConsoleListenerOutcomeCompleted(t *testing.T) {
	listener := newConsoleListener()

	listener.JobUpdated(submission.Job{FileName: "crash1.mp4", Phase: submission.PhaseUploading})
	listener.JobUpdated(submission.Job{FileName: "crash1.mp4", Phase: submission.PhaseCompleted})
	drainTerminal(t, listener)

	// The clear back to idle after the run must not overwrite the result.
	listener.JobUpdated(submission.Job{Phase: submission.PhaseIdle})

	if got := listener.Outcome(); got != submission.PhaseCompleted {
		t.Errorf("Expected outcome %s, got %s", submission.PhaseCompleted, got)
	}
}

func TestConsoleListenerOutcomeFailed(t *testing.T) {
	listener := newConsoleListener()

	listener.JobUpdated(submission.Job{FileName: "crash1.mp4", Phase: submission.PhaseProcessing})
	listener.JobUpdated(submission.Job{FileName: "crash1.mp4", Phase: submission.PhaseFailed})
	drainTerminal(t, listener)

	if got := listener.Outcome(); got != submission.PhaseFailed {
		t.Errorf("Expected outcome %s, got %s", submission.PhaseFailed, got)
	}
}

func TestConsoleListenerOutcomeUploadFailure(t *testing.T) {
	listener := newConsoleListener()

	// A failed upload clears the job straight back to idle with no terminal
	// phase in between; that still ends the run, and not successfully.
	listener.JobUpdated(submission.Job{FileName: "crash1.mp4", Phase: submission.PhaseUploading})
	listener.JobUpdated(submission.Job{Phase: submission.PhaseIdle})
	drainTerminal(t, listener)

	if got := listener.Outcome(); got != submission.PhaseIdle {
		t.Errorf("Expected outcome %s, got %s", submission.PhaseIdle, got)
	}
}
