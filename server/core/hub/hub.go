package hub

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// Event names pushed to connected clients.
const (
	EventProcessingProgress = "processing_progress"
	EventVideoProcessed     = "video_processed"
	EventProcessingError    = "processing_error"
)

// envelope is the wire framing for push events: one JSON object per
// websocket message.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type progressPayload struct {
	Filename  string `json:"filename"`
	Progress  int    `json:"progress"`
	Accidents int    `json:"accidents"`
}

type processedPayload struct {
	Filename string `json:"filename"`
}

type errorPayload struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// EventHub broadcasts analysis events to every connected push client. The
// channel is deliberately shared: every client receives every event and
// filters by filename on its side.
type EventHub struct {
	logger logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewEventHub creates a new event hub
func NewEventHub(logger logging.Logger) *EventHub {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &EventHub{
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

// Add registers a connection for broadcasts.
func (h *EventHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	h.logger.Info("Push client connected", "clients", len(h.conns))
}

// Remove unregisters a connection and closes it.
func (h *EventHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	conn.Close()
	h.logger.Info("Push client disconnected", "clients", len(h.conns))
}

// ConnectionCount returns the number of connected push clients.
func (h *EventHub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// PublishProgress broadcasts an intermediate progress report.
func (h *EventHub) PublishProgress(filename string, progress, accidents int) {
	h.broadcast(EventProcessingProgress, progressPayload{
		Filename:  filename,
		Progress:  progress,
		Accidents: accidents,
	})
}

// PublishProcessed broadcasts a successful completion.
func (h *EventHub) PublishProcessed(filename string) {
	h.broadcast(EventVideoProcessed, processedPayload{Filename: filename})
}

// PublishError broadcasts a processing failure.
func (h *EventHub) PublishError(filename, message string) {
	h.broadcast(EventProcessingError, errorPayload{
		Filename: filename,
		Message:  message,
	})
}

// broadcast sends one event to every connection. Connections that fail to
// take the write are dropped.
func (h *EventHub) broadcast(event string, data any) {
	message, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("Failed to marshal push event", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warn("Dropping push client after write failure", "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
