package analysis

import "context"

// ProgressUpdate is an intermediate report from a running analysis.
type ProgressUpdate struct {
	// Progress is the percentage of the video examined so far, 0-100.
	Progress int
	// Accidents is the number of accidents detected so far.
	Accidents int
}

// Result is the final outcome of a completed analysis.
type Result struct {
	// Accidents is the total number of accidents detected.
	Accidents int
}

// Analyzer runs accident detection over one video file.
type Analyzer interface {
	// Analyze examines the video at path. onProgress, if non-nil, is
	// called with intermediate reports while the analysis runs.
	Analyze(ctx context.Context, path string, onProgress func(ProgressUpdate)) (*Result, error)
}
