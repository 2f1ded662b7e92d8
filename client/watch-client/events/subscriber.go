package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler consumes the raw payload of one push event.
type Handler func(data json.RawMessage)

// Subscriber is a long-lived subscription to the server's push channel. The
// channel is shared process-wide and delivers events for every job the
// server is working on, including jobs this client never started.
type Subscriber interface {
	// On registers the handler for a named event, replacing any
	// previous handler for that event.
	On(event string, handler Handler)

	// Off removes the handler for a named event.
	Off(event string)

	// Close tears the subscription down. It is safe to call more than
	// once; teardown happens exactly once.
	Close() error
}

// envelope is the wire framing for push events: one JSON object per
// websocket message.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebsocketSubscriber implements Subscriber over a websocket connection.
type WebsocketSubscriber struct {
	conn *websocket.Conn

	mu       sync.RWMutex
	handlers map[string]Handler

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Dial connects to the server's push channel and starts dispatching
// inbound events. url is the websocket endpoint, e.g. ws://host/events.
func Dial(url string) (*WebsocketSubscriber, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to push channel: %w", err)
	}

	s := &WebsocketSubscriber{
		conn:     conn,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}

	go s.readLoop()
	return s, nil
}

// On registers the handler for a named event.
func (s *WebsocketSubscriber) On(event string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = handler
}

// Off removes the handler for a named event.
func (s *WebsocketSubscriber) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

// Close tears down the subscription and removes all handlers so no callback
// can fire against a defunct job.
func (s *WebsocketSubscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.handlers = make(map[string]Handler)
		s.mu.Unlock()

		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Done is closed when the subscription ends, either via Close or because
// the connection dropped.
func (s *WebsocketSubscriber) Done() <-chan struct{} {
	return s.done
}

// readLoop reads frames until the connection closes and dispatches each to
// the registered handler, if any. Unknown events are ignored.
func (s *WebsocketSubscriber) readLoop() {
	defer s.Close()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Closed deliberately.
			default:
				log.Printf("Push channel read error: %v", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Discarding malformed push frame: %v", err)
			continue
		}

		s.mu.RLock()
		handler := s.handlers[env.Event]
		s.mu.RUnlock()

		if handler != nil {
			handler(env.Data)
		}
	}
}
