package events

// Named push events emitted by the analysis server. Every payload carries
// the filename of the job it belongs to; delivery is process-wide, so
// consumers must gate on it.
const (
	EventProcessingProgress = "processing_progress"
	EventVideoProcessed     = "video_processed"
	EventProcessingError    = "processing_error"
)

// ProcessingProgress reports server-side analysis progress for one job.
type ProcessingProgress struct {
	Filename  string `json:"filename"`
	Progress  int    `json:"progress"`
	Accidents int    `json:"accidents"`
}

// VideoProcessed signals that analysis of a job finished successfully.
type VideoProcessed struct {
	Filename string `json:"filename"`
}

// ProcessingError signals that analysis of a job failed.
type ProcessingError struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}
