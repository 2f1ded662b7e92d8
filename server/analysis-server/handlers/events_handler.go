package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Push clients are native applications, not browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler upgrades push-channel connections
type EventsHandler struct {
	logger logging.Logger
	hub    *hub.EventHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(logger logging.Logger, eventHub *hub.EventHub) *EventsHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &EventsHandler{
		logger: logger,
		hub:    eventHub,
	}
}

// Events handles GET /events. The connection is registered for broadcasts
// and held open until the client goes away; inbound frames are discarded.
func (h *EventsHandler) Events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade push connection", "error", err)
		return
	}

	h.hub.Add(conn)

	go func() {
		defer h.hub.Remove(conn)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}
