package submission

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvr-labs/crashwatch/client/watch-client/client"
	"github.com/nvr-labs/crashwatch/client/watch-client/common"
	"github.com/nvr-labs/crashwatch/client/watch-client/preview"
)

const (
	// DefaultMaxUploadBytes is the client-side size ceiling, enforced
	// before any network call.
	DefaultMaxUploadBytes int64 = 100 * 1024 * 1024

	// DefaultResetDelay is how long a terminal outcome stays visible
	// before the job is automatically cleared.
	DefaultResetDelay = 3 * time.Second
)

// Coordinator owns the identity of the current submission job and drives its
// state machine. It is the single writer of the Job record: the upload
// transport and the push-event correlator both mutate state exclusively
// through its transition methods, and every transition is guarded by the
// job's generation so results of an abandoned job are rendered inert.
type Coordinator struct {
	serverClient client.AnalysisServerClient
	previews     *preview.Manager
	listener     Listener
	resetDelay   time.Duration
	maxBytes     int64

	mu            sync.Mutex
	job           Job
	previewHandle *preview.Handle
	generation    uint64
	resetTimer    *time.Timer
}

// NewCoordinator creates a new submission coordinator. A nil listener
// defaults to NopListener; a zero resetDelay defaults to DefaultResetDelay.
func NewCoordinator(serverClient client.AnalysisServerClient, previews *preview.Manager, listener Listener, resetDelay time.Duration) *Coordinator {
	if listener == nil {
		listener = NopListener
	}
	if resetDelay == 0 {
		resetDelay = DefaultResetDelay
	}

	return &Coordinator{
		serverClient: serverClient,
		previews:     previews,
		listener:     listener,
		resetDelay:   resetDelay,
		maxBytes:     DefaultMaxUploadBytes,
		job:          Job{Phase: PhaseIdle},
	}
}

// Snapshot returns a copy of the current job record.
func (c *Coordinator) Snapshot() Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// SelectFile validates the candidate file and makes it the current job.
// Validation failures leave the current job untouched. Selecting is rejected
// while an upload or analysis is in flight (use Clear to abandon one first);
// a terminal job still sitting in its observation window may be replaced
// directly.
func (c *Coordinator) SelectFile(path string) error {
	c.mu.Lock()

	if c.job.Phase == PhaseUploading || c.job.Phase == PhaseProcessing {
		from := c.job.Phase
		c.mu.Unlock()
		log.Printf("Rejected file selection while %s", from)
		return NewInvalidTransitionError("select a file", from)
	}

	stat, err := os.Stat(path)
	if err != nil {
		c.mu.Unlock()
		return client.NewValidationError(fmt.Sprintf("Cannot read file: %v", err))
	}

	if stat.Size() > c.maxBytes {
		c.mu.Unlock()
		return client.NewValidationError(fmt.Sprintf("File too large: maximum size is %d MB", c.maxBytes/(1024*1024)))
	}

	mimeType := common.MimeTypeForFile(path)
	if !common.IsVideoMimeType(mimeType) {
		c.mu.Unlock()
		return client.NewValidationError("Invalid file type: please select a video file")
	}

	handle, err := c.previews.Create(path)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to create preview: %w", err)
	}

	// The new selection supersedes whatever was tracked before: release
	// the old preview, cancel any pending auto-reset and invalidate
	// correlation for the previous job.
	c.stopResetTimerLocked()
	c.releasePreviewLocked()
	c.previewHandle = handle
	c.generation++

	c.job = Job{
		FilePath:    path,
		FileName:    filepath.Base(path),
		Size:        stat.Size(),
		MimeType:    mimeType,
		PreviewPath: handle.Path(),
		Phase:       PhaseSelected,
	}

	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
	return nil
}

// Clear abandons the current job: the preview is released, any in-flight
// upload result becomes inert and the state machine returns to Idle. Safe
// to call at any time, including when there is nothing to clear.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.clearLocked()
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
}

// BeginUpload starts the upload transport for the selected file. Valid only
// from Selected. The transport runs concurrently; its progress callbacks and
// terminal result are applied only while this job is still the active one.
func (c *Coordinator) BeginUpload(ctx context.Context) error {
	c.mu.Lock()

	if c.job.Phase != PhaseSelected {
		from := c.job.Phase
		c.mu.Unlock()
		log.Printf("Rejected upload start while %s", from)
		return NewInvalidTransitionError("begin an upload", from)
	}

	c.job.Phase = PhaseUploading
	c.job.UploadProgress = 0
	c.job.ProcessingProgress = 0
	c.job.AccidentCount = 0

	generation := c.generation
	request := client.ProcessVideoRequest{
		FilePath: c.job.FilePath,
		FileName: c.job.FileName,
		MimeType: c.job.MimeType,
	}
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)

	go c.runUpload(ctx, generation, request)
	return nil
}

// ValidateCamera submits a live camera URL for a one-shot validation. It is
// independent of the job state machine and may be called in any phase.
func (c *Coordinator) ValidateCamera(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", client.NewValidationError("Please enter a camera URL")
	}

	return c.serverClient.ValidateCamera(ctx, url)
}

// ApplyProgressEvent applies a processing-progress push event. The event is
// dropped without side effects unless its filename matches the active job
// and the job is still in flight; events arriving after a terminal phase
// are dropped too.
func (c *Coordinator) ApplyProgressEvent(filename string, percent, accidents int) {
	c.mu.Lock()

	if !c.matchesActiveJobLocked(filename) {
		c.mu.Unlock()
		return
	}

	// Progress may arrive before the transport callback flips the phase
	// to Processing, so Uploading is accepted as well.
	if c.job.Phase != PhaseUploading && c.job.Phase != PhaseProcessing {
		c.mu.Unlock()
		return
	}

	c.job.ProcessingProgress = percent
	c.job.AccidentCount = accidents
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
}

// MarkCompleted applies a completion push event for the active job and
// schedules the automatic reset to Idle.
func (c *Coordinator) MarkCompleted(filename string) {
	c.mu.Lock()

	if !c.matchesActiveJobLocked(filename) {
		c.mu.Unlock()
		return
	}

	if c.job.Phase != PhaseUploading && c.job.Phase != PhaseProcessing {
		c.mu.Unlock()
		return
	}

	c.job.Phase = PhaseCompleted
	c.scheduleResetLocked()
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
	c.listener.Notice(SeveritySuccess, "Processing complete", fmt.Sprintf("%s has been analyzed", snapshot.FileName))
}

// MarkFailed applies a processing-error push event for the active job. The
// failure is surfaced as a user-visible notice and the job is scheduled for
// reset; the push channel itself stays up.
func (c *Coordinator) MarkFailed(filename, reason string) {
	c.mu.Lock()

	if !c.matchesActiveJobLocked(filename) {
		c.mu.Unlock()
		return
	}

	if c.job.Phase != PhaseUploading && c.job.Phase != PhaseProcessing {
		c.mu.Unlock()
		return
	}

	if reason == "" {
		reason = "An unexpected error occurred during video processing"
	}

	c.job.Phase = PhaseFailed
	c.scheduleResetLocked()
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
	c.listener.Notice(SeverityError, "Processing Error", reason)
}

// runUpload drives one upload attempt. Everything it applies back to the
// coordinator is guarded by the generation captured at BeginUpload time.
func (c *Coordinator) runUpload(ctx context.Context, generation uint64, request client.ProcessVideoRequest) {
	err := c.serverClient.ProcessVideo(ctx, request, func(percent int) {
		c.applyUploadProgress(generation, percent)
	})

	if err != nil {
		c.failUpload(generation, err)
		return
	}

	c.markProcessing(generation)
}

// applyUploadProgress records a send-progress tick from the transport.
func (c *Coordinator) applyUploadProgress(generation uint64, percent int) {
	c.mu.Lock()

	if generation != c.generation || c.job.Phase != PhaseUploading {
		c.mu.Unlock()
		return
	}

	if percent <= c.job.UploadProgress {
		c.mu.Unlock()
		return
	}

	c.job.UploadProgress = percent
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
}

// markProcessing transitions to Processing on confirmed transport success.
// Reaching 100% sent bytes is not sufficient; only this path may flip the
// phase.
func (c *Coordinator) markProcessing(generation uint64) {
	c.mu.Lock()

	if generation != c.generation || c.job.Phase != PhaseUploading {
		// The job was cleared, superseded, or a push event already
		// drove it to a terminal phase.
		c.mu.Unlock()
		return
	}

	c.job.Phase = PhaseProcessing
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
}

// failUpload surfaces a transport failure. There is no automatic retry: the
// job is cleared and the user must reselect and resubmit.
func (c *Coordinator) failUpload(generation uint64, err error) {
	c.mu.Lock()

	if generation != c.generation || c.job.Phase != PhaseUploading {
		c.mu.Unlock()
		return
	}

	reason := err.Error()
	if te, ok := err.(*client.TransportError); ok {
		reason = te.Reason
	}

	c.clearLocked()
	snapshot := c.job
	c.mu.Unlock()

	c.listener.Notice(SeverityError, "Upload failed", reason)
	c.listener.JobUpdated(snapshot)
}

// matchesActiveJobLocked is the filename gate for push events. Mismatches
// are expected on a shared channel and are dropped silently.
func (c *Coordinator) matchesActiveJobLocked(filename string) bool {
	return c.job.FileName != "" && c.job.FileName == filename
}

// scheduleResetLocked arms the auto-reset that clears a terminal job after
// the observation delay. The timer is tied to the current generation so a
// new job started during the delay window is never clobbered.
func (c *Coordinator) scheduleResetLocked() {
	c.stopResetTimerLocked()

	generation := c.generation
	c.resetTimer = time.AfterFunc(c.resetDelay, func() {
		c.autoReset(generation)
	})
}

func (c *Coordinator) autoReset(generation uint64) {
	c.mu.Lock()

	if generation != c.generation {
		c.mu.Unlock()
		return
	}

	c.clearLocked()
	snapshot := c.job
	c.mu.Unlock()

	c.listener.JobUpdated(snapshot)
}

// clearLocked resets the job record to Idle, releasing the preview and
// invalidating correlation and timers for the previous job.
func (c *Coordinator) clearLocked() {
	c.stopResetTimerLocked()
	c.releasePreviewLocked()
	c.job = Job{Phase: PhaseIdle}
	c.generation++
}

func (c *Coordinator) releasePreviewLocked() {
	if c.previewHandle != nil {
		c.previewHandle.Release()
		c.previewHandle = nil
	}
}

func (c *Coordinator) stopResetTimerLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}
