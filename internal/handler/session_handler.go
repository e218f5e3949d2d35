package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

// SessionOrchestrator — интерфейс оркестратора для handler (D: зависимость от абстракции).
type SessionOrchestrator interface {
	CreateSession(ctx context.Context, tenantID string, req model.CreateSessionRequest) (*model.Session, error)
	GetSession(ctx context.Context, tenantID, sessionID string) (*model.Session, error)
	ListSessions(ctx context.Context, tenantID string, status model.SessionStatus) ([]model.Session, error)
	UpdateSession(ctx context.Context, tenantID, sessionID string, req model.UpdateSessionRequest) (*model.Session, error)
	DeleteSession(ctx context.Context, tenantID, sessionID string) error
	StartBroadcasting(ctx context.Context, tenantID, sessionID string) (*model.Session, error)
	StopBroadcasting(ctx context.Context, tenantID, sessionID string) (*model.Session, error)
	PlatformLinks(ctx context.Context, tenantID, sessionID string) ([]model.PlatformLink, error)
}

// SessionHandler handles REST API for broadcast sessions.
type SessionHandler struct {
	svc SessionOrchestrator
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(svc SessionOrchestrator) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession godoc
// POST /sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.CreateSession(c.Request.Context(), tenantID(c), req)
	if err != nil {
		writeError(c, err, "failed to create session")
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListSessions godoc
// GET /sessions?status=
func (h *SessionHandler) ListSessions(c *gin.Context) {
	status := model.SessionStatus(c.Query("status"))
	sessions, err := h.svc.ListSessions(c.Request.Context(), tenantID(c), status)
	if err != nil {
		writeError(c, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession godoc
// GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to get session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSession godoc
// PATCH /sessions/:id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req model.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.UpdateSession(c.Request.Context(), tenantID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "failed to update session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSession godoc
// DELETE /sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete session")
		return
	}
	c.Status(http.StatusNoContent)
}

// StartBroadcasting godoc
// POST /sessions/:id/start
func (h *SessionHandler) StartBroadcasting(c *gin.Context) {
	sess, err := h.svc.StartBroadcasting(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to start broadcasting")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// StopBroadcasting godoc
// POST /sessions/:id/stop
func (h *SessionHandler) StopBroadcasting(c *gin.Context) {
	sess, err := h.svc.StopBroadcasting(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to stop broadcasting")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// PlatformLinks godoc
// GET /sessions/:id/platforms
func (h *SessionHandler) PlatformLinks(c *gin.Context) {
	links, err := h.svc.PlatformLinks(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to get platform links")
		return
	}
	c.JSON(http.StatusOK, gin.H{"platforms": links})
}

// writeError maps domain errors to HTTP codes.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrSessionNotFound),
		errors.Is(err, errs.ErrSeriesNotFound),
		errors.Is(err, errs.ErrConnectionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
