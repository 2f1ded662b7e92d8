package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/videos"
)

// Job is one uploaded video waiting for analysis. Filename is the
// client-supplied name and is echoed back in every push event so clients can
// correlate results with their own submission.
type Job struct {
	Filename   string
	StoredPath string
	QueuedAt   time.Time
}

// Publisher receives the outcomes of running analyses for fan-out to
// connected clients.
type Publisher interface {
	// PublishProgress reports intermediate progress for a video
	PublishProgress(filename string, progress, accidents int)
	// PublishProcessed reports that a video finished successfully
	PublishProcessed(filename string)
	// PublishError reports that analysis of a video failed
	PublishError(filename, message string)
}

// Queue serializes analysis work. Uploads are accepted immediately and
// analyzed one at a time in the background; results flow out through the
// Publisher only, never through the upload response.
type Queue interface {
	// Enqueue adds a job to the queue. It returns false if the queue is full.
	Enqueue(job *Job) bool

	// Start begins processing the queue
	Start(stopChan <-chan struct{}, wg *sync.WaitGroup)

	// Drain processes remaining jobs during shutdown with timeout
	Drain(timeout time.Duration)
}

// queue implements Queue over a buffered channel
type queue struct {
	logger       logging.Logger
	analyzer     Analyzer
	publisher    Publisher
	uploads      videos.UploadStore
	jobs         chan *Job
	jobTimeout   time.Duration
	drainTimeout time.Duration
}

// NewQueue creates a new analysis queue.
func NewQueue(logger logging.Logger, analyzer Analyzer, publisher Publisher, uploads videos.UploadStore, bufferSize int, jobTimeout, drainTimeout time.Duration) Queue {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &queue{
		logger:       logger,
		analyzer:     analyzer,
		publisher:    publisher,
		uploads:      uploads,
		jobs:         make(chan *Job, bufferSize),
		jobTimeout:   jobTimeout,
		drainTimeout: drainTimeout,
	}
}

// Enqueue adds a job to the queue
func (q *queue) Enqueue(job *Job) bool {
	select {
	case q.jobs <- job:
		q.logger.Info("Queued video for analysis", "filename", job.Filename)
		return true
	default:
		q.logger.Warn("Analysis queue full, dropping job", "filename", job.Filename)
		return false
	}
}

// Start begins processing the queue
func (q *queue) Start(stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-stopChan:
			// Process remaining jobs with timeout
			q.Drain(q.drainTimeout)
			return
		}
	}
}

// Drain processes remaining jobs during shutdown with timeout
func (q *queue) Drain(timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-timer.C:
			q.logger.Warn("Analysis queue drain timeout, forcing shutdown")
			return
		default:
			// No more jobs in queue
			return
		}
	}
}

// process runs one analysis and publishes its outcome. The stored file is
// removed afterwards regardless of the result.
func (q *queue) process(job *Job) {
	q.logger.Info("Analyzing video", "filename", job.Filename, "queuedFor", time.Since(job.QueuedAt))

	ctx := context.Background()
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	result, err := q.analyzer.Analyze(ctx, job.StoredPath, func(update ProgressUpdate) {
		q.publisher.PublishProgress(job.Filename, update.Progress, update.Accidents)
	})

	if removeErr := q.uploads.Remove(job.StoredPath); removeErr != nil {
		q.logger.Error("Failed to remove analyzed video", "path", job.StoredPath, "error", removeErr)
	}

	if err != nil {
		q.logger.Error("Analysis failed", "filename", job.Filename, "error", err)
		q.publisher.PublishError(job.Filename, "An unexpected error occurred during video processing")
		return
	}

	q.logger.Info("Analysis complete", "filename", job.Filename, "accidents", result.Accidents)
	q.publisher.PublishProgress(job.Filename, 100, result.Accidents)
	q.publisher.PublishProcessed(job.Filename)
}
