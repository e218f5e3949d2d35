package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// MeetingScheduler — интерфейс сервиса встреч для handler.
type MeetingScheduler interface {
	CreateSeries(ctx context.Context, tenantID string, req model.CreateSeriesRequest) (*model.Series, error)
	GetSeries(ctx context.Context, tenantID, seriesID string) (*model.Series, error)
	ListSeries(ctx context.Context, tenantID string, branchID *string) ([]model.Series, error)
	UpdateSeries(ctx context.Context, tenantID, seriesID string, req model.UpdateSeriesRequest) (*model.Series, error)
	DeleteSeries(ctx context.Context, tenantID, seriesID string) error
	Occurrences(ctx context.Context, tenantID, seriesID string, from, to time.Time) ([]model.Occurrence, error)
	CalendarWindow(ctx context.Context, tenantID string, branchID *string, from, to time.Time) ([]model.Occurrence, error)
}

// MeetingHandler handles meeting series and occurrence endpoints.
type MeetingHandler struct {
	svc MeetingScheduler
}

// NewMeetingHandler creates a meeting handler.
func NewMeetingHandler(svc MeetingScheduler) *MeetingHandler {
	return &MeetingHandler{svc: svc}
}

// CreateSeries godoc
// POST /meetings
func (h *MeetingHandler) CreateSeries(c *gin.Context) {
	var req model.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	series, err := h.svc.CreateSeries(c.Request.Context(), tenantID(c), req)
	if err != nil {
		writeError(c, err, "failed to create series")
		return
	}
	c.JSON(http.StatusCreated, series)
}

// ListSeries godoc
// GET /meetings
func (h *MeetingHandler) ListSeries(c *gin.Context) {
	series, err := h.svc.ListSeries(c.Request.Context(), tenantID(c), branchID(c))
	if err != nil {
		writeError(c, err, "failed to list series")
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": series})
}

// GetSeries godoc
// GET /meetings/:id
func (h *MeetingHandler) GetSeries(c *gin.Context) {
	series, err := h.svc.GetSeries(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to get series")
		return
	}
	c.JSON(http.StatusOK, series)
}

// UpdateSeries godoc
// PATCH /meetings/:id
func (h *MeetingHandler) UpdateSeries(c *gin.Context) {
	var req model.UpdateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	series, err := h.svc.UpdateSeries(c.Request.Context(), tenantID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err, "failed to update series")
		return
	}
	c.JSON(http.StatusOK, series)
}

// DeleteSeries godoc
// DELETE /meetings/:id
func (h *MeetingHandler) DeleteSeries(c *gin.Context) {
	if err := h.svc.DeleteSeries(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete series")
		return
	}
	c.Status(http.StatusNoContent)
}

// Occurrences godoc
// GET /meetings/:id/occurrences?from=&to=
func (h *MeetingHandler) Occurrences(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	occs, err := h.svc.Occurrences(c.Request.Context(), tenantID(c), c.Param("id"), from, to)
	if err != nil {
		writeError(c, err, "failed to expand occurrences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occs})
}

// CalendarWindow godoc
// GET /occurrences?from=&to=
func (h *MeetingHandler) CalendarWindow(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	occs, err := h.svc.CalendarWindow(c.Request.Context(), tenantID(c), branchID(c), from, to)
	if err != nil {
		writeError(c, err, "failed to expand occurrences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occs})
}

// parseWindow reads the from/to RFC3339 query bounds.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
