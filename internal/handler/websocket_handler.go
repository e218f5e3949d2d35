package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/psds-microservice/broadcast-service/internal/hub"
)

// StatusWSHandler handles WebSocket connections for /ws/sessions/:session_id.
type StatusWSHandler struct {
	hub    hub.StatusHubForHandler
	svc    SessionOrchestrator
	logger *zap.Logger
}

// NewStatusWSHandler creates the status feed handler.
func NewStatusWSHandler(h hub.StatusHubForHandler, svc SessionOrchestrator, logger *zap.Logger) *StatusWSHandler {
	return &StatusWSHandler{hub: h, svc: svc, logger: logger}
}

// ServeWS upgrades the request to WebSocket and streams status events.
// Path: /ws/sessions/:session_id
// Subscribers are read-only; inbound frames are drained and discarded.
func (h *StatusWSHandler) ServeWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	if _, err := h.svc.GetSession(c.Request.Context(), tenantID(c), sessionID); err != nil {
		writeError(c, err, "failed to get session")
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub, cleanup := h.hub.Register(sessionID, conn)
	defer cleanup()

	go h.writePump(sub)
	h.readPump(sub)
}

func (h *StatusWSHandler) readPump(s *hub.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
	}
}

func (h *StatusWSHandler) writePump(s *hub.Subscriber) {
	defer func() {
		_ = s.Conn.Close()
	}()
	for data := range s.Send {
		if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
