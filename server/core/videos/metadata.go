package videos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xfrr/goffmpeg/transcoder"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// VideoMetadata describes the probed properties of an uploaded video.
type VideoMetadata struct {
	Width           int
	Height          int
	MimeType        string
	DurationSeconds float64
}

// VideoMetadataExtractor defines the interface for probing video metadata
type VideoMetadataExtractor interface {
	// ExtractMetadata probes the video file at the given path
	ExtractMetadata(path string) (*VideoMetadata, error)
}

// FFmpegMetadataExtractor implements VideoMetadataExtractor using FFmpeg
type FFmpegMetadataExtractor struct {
	logger logging.Logger
}

// NewFFmpegMetadataExtractor creates a new FFmpeg-based metadata extractor
func NewFFmpegMetadataExtractor(logger logging.Logger) *FFmpegMetadataExtractor {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &FFmpegMetadataExtractor{
		logger: logger,
	}
}

// ExtractMetadata probes the stored video file using goffmpeg
func (e *FFmpegMetadataExtractor) ExtractMetadata(path string) (*VideoMetadata, error) {
	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(path, ""); err != nil {
		return nil, fmt.Errorf("failed to initialize transcoder for metadata: %w", err)
	}

	metadata := trans.MediaFile().Metadata()

	var width, height int
	var mimeType string

	for _, stream := range metadata.Streams {
		if stream.CodecType != "video" {
			continue
		}

		width = stream.Width
		height = stream.Height

		switch stream.CodecName {
		case "h264", "h265", "hevc":
			mimeType = "video/mp4"
		case "vp8", "vp9", "av1":
			mimeType = "video/webm"
		default:
			mimeType = mimeTypeFromFormat(metadata.Format.FormatName)
		}

		// Use first video stream
		break
	}

	if width == 0 || height == 0 {
		return nil, fmt.Errorf("could not extract video dimensions")
	}

	duration, err := strconv.ParseFloat(metadata.Format.Duration, 64)
	if err != nil {
		duration = 0
	}

	e.logger.Debug("Extracted video metadata", "width", width, "height", height, "mimeType", mimeType, "duration", duration)

	return &VideoMetadata{
		Width:           width,
		Height:          height,
		MimeType:        mimeType,
		DurationSeconds: duration,
	}, nil
}

func mimeTypeFromFormat(formatName string) string {
	switch {
	case strings.Contains(formatName, "mp4"):
		return "video/mp4"
	case strings.Contains(formatName, "webm"):
		return "video/webm"
	case strings.Contains(formatName, "avi"):
		return "video/x-msvideo"
	case strings.Contains(formatName, "matroska"):
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
