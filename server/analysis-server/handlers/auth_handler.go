package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/core/ccc/auth"
	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/users"
)

// AuthHandler handles user registration and login
type AuthHandler struct {
	logger   logging.Logger
	service  users.UserService
	sessions users.SessionStore
	failures auth.FailureTracker
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(logger logging.Logger, service users.UserService, sessions users.SessionStore, failures auth.FailureTracker) *AuthHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	if failures == nil {
		failures = auth.NopFailureTracker
	}

	return &AuthHandler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		failures: failures,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if users.IsInvalidCredentialsError(err) {
			count := h.failures.RecordFailure(req.Username, c.ClientIP(), time.Now())
			if h.failures.ShouldThrottle(count) {
				h.logger.Warn("Throttling login attempts", "username", req.Username, "failures", count)
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts, please try again later"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		h.logger.Error("Login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication error"})
		return
	}

	session := h.sessions.Issue(user)

	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"username": session.Username,
		"role":     session.Role,
	})
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.service.Register(c.Request.Context(), users.RegisterUserRequest{
		Username: req.Username,
		Password: req.Password,
		Role:     users.Role(req.Role),
	})
	if err != nil {
		if users.IsUserValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if users.IsUserAlreadyExistsError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}

		h.logger.Error("Registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"username": user.Username,
	})
}
