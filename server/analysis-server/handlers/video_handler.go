package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/analysis-server/utils"
	"github.com/nvr-labs/crashwatch/server/core/analysis"
	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/videos"
)

// VideoHandler handles video submission for analysis
type VideoHandler struct {
	logger   logging.Logger
	uploads  videos.UploadStore
	metadata videos.VideoMetadataExtractor
	queue    analysis.Queue
	maxBytes int64
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(logger logging.Logger, uploads videos.UploadStore, metadata videos.VideoMetadataExtractor, queue analysis.Queue, maxBytes int64) *VideoHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &VideoHandler{
		logger:   logger,
		uploads:  uploads,
		metadata: metadata,
		queue:    queue,
		maxBytes: maxBytes,
	}
}

// ProcessVideo handles POST /process-video. A 200 response means the upload
// was accepted and queued; analysis results are delivered asynchronously
// over the push channel, keyed by the submitted filename.
func (h *VideoHandler) ProcessVideo(c *gin.Context) {
	h.logger.Info("Received video submission")

	if c.Request.ContentLength > h.maxBytes {
		h.logger.Warn("Rejected oversized upload", "contentLength", c.Request.ContentLength)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fileHeader, err := c.FormFile("video")
	if err != nil {
		h.logger.Warn("Failed to get uploaded file", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video file is required"})
		return
	}

	if fileHeader.Size > h.maxBytes {
		h.logger.Warn("Rejected oversized upload", "size", fileHeader.Size)
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process uploaded file"})
		return
	}
	defer file.Close()

	// Trust the bytes, not the filename or the declared MIME type.
	head := make([]byte, utils.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		h.logger.Error("Failed to read uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	format, ok := utils.DetectVideoFormat(head[:n])
	if !ok {
		h.logger.Warn("Uploaded file is not a video", "filename", fileHeader.Filename)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is not a valid video format"})
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.logger.Error("Failed to rewind uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process uploaded file"})
		return
	}

	// The base name is the correlation key echoed in push events. Strip
	// any path components a hostile client might send.
	filename := filepath.Base(fileHeader.Filename)

	stored, err := h.uploads.Save(filename, file)
	if err != nil {
		h.logger.Error("Failed to store uploaded video", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded video"})
		return
	}

	h.logger.Info("Video stored", "filename", filename, "format", format, "size", stored.Size)

	// Probe is best effort; an unprobeable file still goes to the
	// detector, which produces the authoritative failure.
	if meta, err := h.metadata.ExtractMetadata(stored.StoredPath); err != nil {
		h.logger.Warn("Failed to probe video metadata", "filename", filename, "error", err)
	} else {
		h.logger.Info("Probed video", "filename", filename,
			"width", meta.Width, "height", meta.Height, "duration", meta.DurationSeconds)
	}

	job := &analysis.Job{
		Filename:   filename,
		StoredPath: stored.StoredPath,
		QueuedAt:   time.Now(),
	}
	if !h.queue.Enqueue(job) {
		h.uploads.Remove(stored.StoredPath)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is busy, please try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Video uploaded and queued for processing",
		"filename": filename,
	})
}
