package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// ConnectionManager is the slice of the connection service the handler needs.
type ConnectionManager interface {
	Connect(ctx context.Context, tenantID string, p model.Platform, creds model.Credentials, expiresAt *time.Time) error
	Disconnect(ctx context.Context, tenantID string, p model.Platform) error
	List(ctx context.Context, tenantID string) ([]model.ConnectionView, error)
}

// ClientEvictor invalidates cached vendor clients after credential changes.
type ClientEvictor interface {
	Clear(tenantID string, p model.Platform)
}

// ConnectionHandler handles platform connection endpoints. Credentials
// travel in only; responses never include them.
type ConnectionHandler struct {
	svc     ConnectionManager
	evictor ClientEvictor
}

// NewConnectionHandler creates a connection handler.
func NewConnectionHandler(svc ConnectionManager, evictor ClientEvictor) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, evictor: evictor}
}

// Connect godoc
// POST /connections
func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req model.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if !req.Platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}
	tenant := tenantID(c)
	if err := h.svc.Connect(c.Request.Context(), tenant, req.Platform, req.Credentials, req.ExpiresAt); err != nil {
		writeError(c, err, "failed to connect platform")
		return
	}
	// Rotated credentials must not serve from a stale client.
	h.evictor.Clear(tenant, req.Platform)
	c.JSON(http.StatusCreated, gin.H{"platform": req.Platform, "status": model.ConnectionConnected})
}

// List godoc
// GET /connections
func (h *ConnectionHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err, "failed to list connections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": views})
}

// Disconnect godoc
// DELETE /connections/:platform
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	p := model.Platform(c.Param("platform"))
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}
	tenant := tenantID(c)
	if err := h.svc.Disconnect(c.Request.Context(), tenant, p); err != nil {
		writeError(c, err, "failed to disconnect platform")
		return
	}
	h.evictor.Clear(tenant, p)
	c.Status(http.StatusNoContent)
}
