package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/core/cameras"
	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// CameraHandler handles live camera stream validation
type CameraHandler struct {
	logger       logging.Logger
	validator    cameras.StreamValidator
	probeTimeout time.Duration
}

// NewCameraHandler creates a new camera handler
func NewCameraHandler(logger logging.Logger, validator cameras.StreamValidator, probeTimeout time.Duration) *CameraHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &CameraHandler{
		logger:       logger,
		validator:    validator,
		probeTimeout: probeTimeout,
	}
}

// validateCameraRequest is the expected JSON body for camera validation
type validateCameraRequest struct {
	URL string `json:"url"`
}

// ValidateCamera handles POST /validate-camera. Both outcomes carry a
// user-facing message field; the status code distinguishes them.
func (h *CameraHandler) ValidateCamera(c *gin.Context) {
	var req validateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid camera validation request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a camera URL"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a camera URL"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.probeTimeout)
	defer cancel()

	if err := h.validator.Validate(ctx, url); err != nil {
		h.logger.Warn("Camera validation failed", "url", url)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not connect to camera. Please check the URL and try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Camera connected successfully"})
}
