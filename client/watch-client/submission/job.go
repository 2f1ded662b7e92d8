package submission

import "fmt"

// Phase is the lifecycle phase of a submission job.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSelected   Phase = "selected"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether the phase is a terminal outcome after which the
// job is scheduled for reset.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Job is the canonical record of one video-submission attempt, from file
// selection through its terminal outcome. The FileName is the correlation
// key used to match asynchronous push events against this job; the push
// channel is shared process-wide, so events carrying any other filename
// must never touch this record.
type Job struct {
	FilePath string
	FileName string
	Size     int64
	MimeType string

	PreviewPath string

	Phase              Phase
	UploadProgress     int // 0-100, non-decreasing within one upload attempt
	ProcessingProgress int // 0-100, supplied exclusively by push events
	AccidentCount      int // supplied exclusively by push events
}

// StatusMessage derives a human-readable status from the current phase and
// progress counters. It is recomputed on demand, never stored.
func (j *Job) StatusMessage() string {
	switch j.Phase {
	case PhaseSelected:
		return fmt.Sprintf("Selected %s", j.FileName)
	case PhaseUploading:
		return fmt.Sprintf("Uploading... (%d%%)", j.UploadProgress)
	case PhaseProcessing:
		return fmt.Sprintf("Processing... %d%% | Accidents: %d", j.ProcessingProgress, j.AccidentCount)
	case PhaseCompleted:
		return "Processing complete!"
	case PhaseFailed:
		return "Processing failed"
	default:
		return ""
	}
}
