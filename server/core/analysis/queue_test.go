package analysis

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/videos"
)

type publishedProgress struct {
	filename  string
	progress  int
	accidents int
}

// recordingPublisher captures publications for later assertions.
type recordingPublisher struct {
	mu        sync.Mutex
	progress  []publishedProgress
	processed []string
	failed    map[string]string
	done      chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		failed: make(map[string]string),
		done:   make(chan struct{}, 10),
	}
}

func (p *recordingPublisher) PublishProgress(filename string, progress, accidents int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, publishedProgress{filename, progress, accidents})
}

func (p *recordingPublisher) PublishProcessed(filename string) {
	p.mu.Lock()
	p.processed = append(p.processed, filename)
	p.mu.Unlock()
	p.done <- struct{}{}
}

func (p *recordingPublisher) PublishError(filename, message string) {
	p.mu.Lock()
	p.failed[filename] = message
	p.mu.Unlock()
	p.done <- struct{}{}
}

func (p *recordingPublisher) waitForOutcome(t *testing.T) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for analysis outcome")
	}
}

func newTestStore(t *testing.T) videos.UploadStore {
	t.Helper()
	store, err := videos.NewDiskUploadStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}
	return store
}

func saveTestVideo(t *testing.T, store videos.UploadStore, name string) *videos.StoredVideo {
	t.Helper()
	stored, err := store.Save(name, strings.NewReader("video data"))
	if err != nil {
		t.Fatalf("Failed to save test video: %v", err)
	}
	return stored
}

func startQueue(t *testing.T, q Queue) {
	t.Helper()

	stopChan := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go q.Start(stopChan, &wg)

	t.Cleanup(func() {
		close(stopChan)
		wg.Wait()
	})
}

func TestQueueProcessesJob(t *testing.T) {
	store := newTestStore(t)
	stored := saveTestVideo(t, store, "crash1.mp4")

	analyzer := NewMockAnalyzer()
	analyzer.ProgressReports = []ProgressUpdate{
		{Progress: 40, Accidents: 1},
		{Progress: 80, Accidents: 2},
	}
	analyzer.Result = &Result{Accidents: 2}

	publisher := newRecordingPublisher()
	q := NewQueue(logging.NopLogger, analyzer, publisher, store, 4, time.Minute, time.Second)
	startQueue(t, q)

	if !q.Enqueue(&Job{Filename: "crash1.mp4", StoredPath: stored.StoredPath, QueuedAt: time.Now()}) {
		t.Fatal("Enqueue rejected job")
	}

	publisher.waitForOutcome(t)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if len(publisher.processed) != 1 || publisher.processed[0] != "crash1.mp4" {
		t.Errorf("Expected crash1.mp4 processed, got %v", publisher.processed)
	}

	// Intermediate reports plus the final 100% report.
	if len(publisher.progress) != 3 {
		t.Fatalf("Expected 3 progress publications, got %v", publisher.progress)
	}
	final := publisher.progress[2]
	if final.progress != 100 || final.accidents != 2 {
		t.Errorf("Expected final progress 100%%/2 accidents, got %+v", final)
	}
	for _, p := range publisher.progress {
		if p.filename != "crash1.mp4" {
			t.Errorf("Expected events keyed by original filename, got %s", p.filename)
		}
	}

	if _, err := os.Stat(stored.StoredPath); !os.IsNotExist(err) {
		t.Errorf("Expected stored file removed after analysis, stat err: %v", err)
	}
}

func TestQueuePublishesError(t *testing.T) {
	store := newTestStore(t)
	stored := saveTestVideo(t, store, "crash1.mp4")

	analyzer := NewMockAnalyzer()
	analyzer.Err = errors.New("decoder exploded")

	publisher := newRecordingPublisher()
	q := NewQueue(logging.NopLogger, analyzer, publisher, store, 4, time.Minute, time.Second)
	startQueue(t, q)

	q.Enqueue(&Job{Filename: "crash1.mp4", StoredPath: stored.StoredPath, QueuedAt: time.Now()})
	publisher.waitForOutcome(t)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	message, ok := publisher.failed["crash1.mp4"]
	if !ok {
		t.Fatal("Expected an error publication for crash1.mp4")
	}
	// Internal error details must not leak to clients.
	if strings.Contains(message, "decoder exploded") {
		t.Errorf("Expected sanitized error message, got %q", message)
	}
	if len(publisher.processed) != 0 {
		t.Errorf("Expected no completion publication, got %v", publisher.processed)
	}

	if _, err := os.Stat(stored.StoredPath); !os.IsNotExist(err) {
		t.Errorf("Expected stored file removed after failure, stat err: %v", err)
	}
}

func TestQueueFullDropsJob(t *testing.T) {
	store := newTestStore(t)

	analyzer := NewMockAnalyzer()
	analyzer.Result = &Result{}

	publisher := newRecordingPublisher()
	// Not started, so the buffer fills up.
	q := NewQueue(logging.NopLogger, analyzer, publisher, store, 1, time.Minute, time.Second)

	if !q.Enqueue(&Job{Filename: "a.mp4"}) {
		t.Fatal("Expected first job accepted")
	}
	if q.Enqueue(&Job{Filename: "b.mp4"}) {
		t.Error("Expected second job rejected when queue is full")
	}
}

func TestQueueDrain(t *testing.T) {
	store := newTestStore(t)
	stored := saveTestVideo(t, store, "crash1.mp4")

	analyzer := NewMockAnalyzer()
	analyzer.Result = &Result{Accidents: 0}

	publisher := newRecordingPublisher()
	q := NewQueue(logging.NopLogger, analyzer, publisher, store, 4, time.Minute, time.Second)

	q.Enqueue(&Job{Filename: "crash1.mp4", StoredPath: stored.StoredPath, QueuedAt: time.Now()})
	q.Drain(time.Second)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.processed) != 1 {
		t.Errorf("Expected queued job drained, got %v", publisher.processed)
	}
}
