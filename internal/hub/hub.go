package hub

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Subscriber represents a WebSocket connection watching one session's
// status feed. Subscribers are read-only consumers; no media flows here.
type Subscriber struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// StatusHubForHandler — интерфейс для WebSocket handler (D: зависимость от абстракции).
type StatusHubForHandler interface {
	Register(sessionID string, conn *websocket.Conn) (*Subscriber, func())
	Upgrader() *websocket.Upgrader
}

// StatusHub fans binding and session status events out to per-session
// WebSocket subscribers so dashboards see partial failure live instead
// of polling.
type StatusHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{} // sessionID -> set of subscribers
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

// NewStatusHub creates a new status hub.
func NewStatusHub(log *zap.Logger) *StatusHub {
	return &StatusHub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Register adds a subscriber to a session and returns a cleanup function.
func (h *StatusHub) Register(sessionID string, conn *websocket.Conn) (*Subscriber, func()) {
	s := &Subscriber{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
	}
	h.mu.Lock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[sessionID][s] = struct{}{}
	h.mu.Unlock()

	h.log.Info("status subscriber registered", zap.String("session_id", sessionID))

	cleanup := func() {
		h.unregister(sessionID, s)
	}
	return s, cleanup
}

func (h *StatusHub) unregister(sessionID string, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.subscribers[sessionID]
	if !ok {
		// CloseSession already tore the session down, Send is closed.
		return
	}
	if _, present := m[s]; !present {
		return
	}
	delete(m, s)
	if len(m) == 0 {
		delete(h.subscribers, sessionID)
	}
	close(s.Send)
	h.log.Info("status subscriber unregistered", zap.String("session_id", sessionID))
}

// Publish sends a status event to every subscriber of the session.
// Slow subscribers are skipped, never blocked on.
func (h *StatusHub) Publish(sessionID string, evt model.StatusEvent) {
	raw, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("status event marshal failed", zap.Error(err))
		return
	}

	// Sends stay under the read lock: Send is only closed under the write
	// lock after the subscriber leaves the map, so a send here can never
	// hit a closed channel. The sends are non-blocking, so holding the
	// lock across them is cheap.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers[sessionID] {
		select {
		case s.Send <- raw:
		default:
			h.log.Warn("subscriber send buffer full", zap.String("session_id", sessionID))
		}
	}
}

// CloseSession notifies and disconnects all subscribers of the session.
func (h *StatusHub) CloseSession(sessionID string) {
	h.mu.Lock()
	m, ok := h.subscribers[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subscribers, sessionID)
	h.mu.Unlock()

	closeMsg := map[string]string{"event": "session_deleted", "session_id": sessionID}
	raw, _ := json.Marshal(closeMsg)
	for s := range m {
		_ = s.Conn.WriteMessage(websocket.TextMessage, raw)
		close(s.Send)
		_ = s.Conn.Close()
	}
	h.log.Info("session feed closed", zap.String("session_id", sessionID))
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *StatusHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// SubscriberCount returns number of subscribers in a session (for debugging).
func (h *StatusHub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}
