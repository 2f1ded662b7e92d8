package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/users"
)

// AuthMiddleware provides token authentication middleware for Gin
type AuthMiddleware struct {
	logger   logging.Logger
	sessions users.SessionStore
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(logger logging.Logger, sessions users.SessionStore) *AuthMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AuthMiddleware{
		logger:   logger,
		sessions: sessions,
	}
}

// RequireAuth middleware that requires a valid bearer token
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Expected format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("Missing Authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			c.Abort()
			return
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			m.logger.Warn("Invalid Authorization header format")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		session := m.sessions.Validate(token)
		if session == nil {
			m.logger.Warn("Rejected invalid or expired token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Store session identity in context
		c.Set("username", session.Username)
		c.Set("role", string(session.Role))

		c.Next()
	}
}
