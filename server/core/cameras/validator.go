package cameras

import (
	"context"
	"fmt"
	"strings"

	"gocv.io/x/gocv"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// StreamValidator probes whether a live camera stream is reachable and
// produces frames.
type StreamValidator interface {
	// Validate attempts to open the stream and read a frame
	Validate(ctx context.Context, url string) error
}

// CameraUnreachableError indicates the stream could not be opened or read.
type CameraUnreachableError struct {
	URL string
}

func (e *CameraUnreachableError) Error() string {
	return fmt.Sprintf("could not connect to camera at %s", e.URL)
}

// NewCameraUnreachableError creates a new CameraUnreachableError
func NewCameraUnreachableError(url string) *CameraUnreachableError {
	return &CameraUnreachableError{URL: url}
}

// IsCameraUnreachableError checks if the error is a CameraUnreachableError
func IsCameraUnreachableError(err error) bool {
	_, ok := err.(*CameraUnreachableError)
	return ok
}

// OpenCVStreamValidator implements StreamValidator using OpenCV capture.
type OpenCVStreamValidator struct {
	logger logging.Logger
}

// NewOpenCVStreamValidator creates a new OpenCV-based stream validator
func NewOpenCVStreamValidator(logger logging.Logger) *OpenCVStreamValidator {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &OpenCVStreamValidator{
		logger: logger,
	}
}

// Validate opens the stream and reads a single frame. Opening a dead RTSP
// endpoint can block for a long time, so the probe runs in its own goroutine
// and the context deadline decides how long we wait for it.
func (v *OpenCVStreamValidator) Validate(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return NewCameraUnreachableError(url)
	}

	done := make(chan error, 1)

	go func() {
		capture, err := gocv.OpenVideoCapture(url)
		if err != nil {
			done <- NewCameraUnreachableError(url)
			return
		}
		defer capture.Close()

		if !capture.IsOpened() {
			done <- NewCameraUnreachableError(url)
			return
		}

		frame := gocv.NewMat()
		defer frame.Close()

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			done <- NewCameraUnreachableError(url)
			return
		}

		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			v.logger.Warn("Camera validation failed", "url", url)
			return err
		}
		v.logger.Info("Camera validated", "url", url)
		return nil
	case <-ctx.Done():
		v.logger.Warn("Camera validation timed out", "url", url)
		return NewCameraUnreachableError(url)
	}
}
