package events

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-labs/crashwatch/client/watch-client/client"
	"github.com/nvr-labs/crashwatch/client/watch-client/preview"
	"github.com/nvr-labs/crashwatch/client/watch-client/submission"
)

// fakeSubscriber lets tests inject push frames directly.
type fakeSubscriber struct {
	handlers map[string]Handler
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]Handler)}
}

func (s *fakeSubscriber) On(event string, handler Handler) {
	s.handlers[event] = handler
}

func (s *fakeSubscriber) Off(event string) {
	delete(s.handlers, event)
}

func (s *fakeSubscriber) Close() error {
	return nil
}

func (s *fakeSubscriber) emit(t *testing.T, event string, payload interface{}) {
	t.Helper()

	handler, ok := s.handlers[event]
	if !ok {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	handler(data)
}

func newProcessingCoordinator(t *testing.T, name string) *submission.Coordinator {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	mock := client.NewMockAnalysisServerClient()
	previews := preview.NewManager(t.TempDir())
	coordinator := submission.NewCoordinator(mock, previews, nil, time.Minute)

	if err := coordinator.SelectFile(path); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if err := coordinator.BeginUpload(context.Background()); err != nil {
		t.Fatalf("BeginUpload failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if coordinator.Snapshot().Phase == submission.PhaseProcessing {
			return coordinator
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for processing phase")
	return nil
}

func TestCorrelatorRoutesProgress(t *testing.T) {
	coordinator := newProcessingCoordinator(t, "crash1.mp4")

	subscriber := newFakeSubscriber()
	correlator := NewCorrelator(subscriber, coordinator)
	correlator.Attach()

	subscriber.emit(t, EventProcessingProgress, ProcessingProgress{
		Filename:  "crash1.mp4",
		Progress:  60,
		Accidents: 2,
	})

	job := coordinator.Snapshot()
	if job.ProcessingProgress != 60 || job.AccidentCount != 2 {
		t.Errorf("Expected 60%%/2 accidents, got %d%%/%d", job.ProcessingProgress, job.AccidentCount)
	}
}

func TestCorrelatorRoutesCompletion(t *testing.T) {
	coordinator := newProcessingCoordinator(t, "crash1.mp4")

	subscriber := newFakeSubscriber()
	correlator := NewCorrelator(subscriber, coordinator)
	correlator.Attach()

	subscriber.emit(t, EventVideoProcessed, VideoProcessed{Filename: "crash1.mp4"})

	if phase := coordinator.Snapshot().Phase; phase != submission.PhaseCompleted {
		t.Errorf("Expected phase %s, got %s", submission.PhaseCompleted, phase)
	}
}

func TestCorrelatorRoutesError(t *testing.T) {
	coordinator := newProcessingCoordinator(t, "crash1.mp4")

	subscriber := newFakeSubscriber()
	correlator := NewCorrelator(subscriber, coordinator)
	correlator.Attach()

	subscriber.emit(t, EventProcessingError, ProcessingError{
		Filename: "crash1.mp4",
		Message:  "frame decode failed",
	})

	if phase := coordinator.Snapshot().Phase; phase != submission.PhaseFailed {
		t.Errorf("Expected phase %s, got %s", submission.PhaseFailed, phase)
	}
}

func TestCorrelatorDetach(t *testing.T) {
	coordinator := newProcessingCoordinator(t, "crash1.mp4")

	subscriber := newFakeSubscriber()
	correlator := NewCorrelator(subscriber, coordinator)
	correlator.Attach()
	correlator.Detach()
	correlator.Detach()

	if len(subscriber.handlers) != 0 {
		t.Errorf("Expected all handlers removed, got %d", len(subscriber.handlers))
	}

	subscriber.emit(t, EventVideoProcessed, VideoProcessed{Filename: "crash1.mp4"})
	if phase := coordinator.Snapshot().Phase; phase != submission.PhaseProcessing {
		t.Errorf("Expected events inert after detach, got phase %s", phase)
	}
}

func TestCorrelatorMalformedPayload(t *testing.T) {
	coordinator := newProcessingCoordinator(t, "crash1.mp4")

	subscriber := newFakeSubscriber()
	correlator := NewCorrelator(subscriber, coordinator)
	correlator.Attach()

	subscriber.handlers[EventProcessingProgress]([]byte(`{"filename": 42}`))

	job := coordinator.Snapshot()
	if job.Phase != submission.PhaseProcessing || job.ProcessingProgress != 0 {
		t.Errorf("Expected malformed event dropped, got %+v", job)
	}
}
