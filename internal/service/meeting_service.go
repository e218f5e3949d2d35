package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
	"github.com/psds-microservice/broadcast-service/internal/recurrence"
)

// SeriesStore persists meeting series definitions.
type SeriesStore interface {
	Create(ctx context.Context, ent *model.MeetingSeries) error
	Get(ctx context.Context, tenantID, seriesID string) (*model.MeetingSeries, error)
	List(ctx context.Context, tenantID string, branchID *string) ([]model.MeetingSeries, error)
	Save(ctx context.Context, ent *model.MeetingSeries) error
	Delete(ctx context.Context, tenantID, seriesID string) error
}

// MeetingService manages meeting series and expands their occurrences
// on demand. Occurrences are never stored.
type MeetingService struct {
	series SeriesStore
}

// NewMeetingService creates a meeting service.
func NewMeetingService(series SeriesStore) *MeetingService {
	return &MeetingService{series: series}
}

// CreateSeries validates and stores a series definition.
func (s *MeetingService) CreateSeries(ctx context.Context, tenantID string, req model.CreateSeriesRequest) (*model.Series, error) {
	if err := validateRecurrence(req.Recurrence); err != nil {
		return nil, err
	}
	if req.EndAt != nil && !req.EndAt.After(req.StartAt) {
		return nil, errs.Validation("end_at must be after start_at")
	}
	ent := &model.MeetingSeries{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		BranchID:    req.BranchID,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Timezone:    req.Timezone,
		Recurrence:  req.Recurrence,
	}
	if err := s.series.Create(ctx, ent); err != nil {
		return nil, err
	}
	return entityToSeries(ent), nil
}

// GetSeries returns one series by ID.
func (s *MeetingService) GetSeries(ctx context.Context, tenantID, seriesID string) (*model.Series, error) {
	ent, err := s.series.Get(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}
	return entityToSeries(ent), nil
}

// ListSeries returns the tenant's series. Branch viewers see their
// branch plus series not pinned to a branch.
func (s *MeetingService) ListSeries(ctx context.Context, tenantID string, branchID *string) ([]model.Series, error) {
	ents, err := s.series.List(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.Series, 0, len(ents))
	for i := range ents {
		if branchID != nil && ents[i].BranchID != nil && *ents[i].BranchID != *branchID {
			continue
		}
		out = append(out, *entityToSeries(&ents[i]))
	}
	return out, nil
}

// UpdateSeries applies a partial update; nil fields are left unchanged.
func (s *MeetingService) UpdateSeries(ctx context.Context, tenantID, seriesID string, req model.UpdateSeriesRequest) (*model.Series, error) {
	ent, err := s.series.Get(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}
	if req.Recurrence != nil {
		if err := validateRecurrence(req.Recurrence); err != nil {
			return nil, err
		}
		ent.Recurrence = req.Recurrence
	}
	if req.Title != nil {
		ent.Title = *req.Title
	}
	if req.Description != nil {
		ent.Description = *req.Description
	}
	if req.StartAt != nil {
		ent.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		ent.EndAt = req.EndAt
	}
	if req.Timezone != nil {
		ent.Timezone = *req.Timezone
	}
	if req.BranchID != nil {
		ent.BranchID = req.BranchID
	}
	if ent.EndAt != nil && !ent.EndAt.After(ent.StartAt) {
		return nil, errs.Validation("end_at must be after start_at")
	}
	if err := s.series.Save(ctx, ent); err != nil {
		return nil, err
	}
	return entityToSeries(ent), nil
}

// DeleteSeries removes the series. Past occurrences disappear with it;
// they were never materialized.
func (s *MeetingService) DeleteSeries(ctx context.Context, tenantID, seriesID string) error {
	return s.series.Delete(ctx, tenantID, seriesID)
}

// Occurrences expands one series over [from, to].
func (s *MeetingService) Occurrences(ctx context.Context, tenantID, seriesID string, from, to time.Time) ([]model.Occurrence, error) {
	if !to.After(from) {
		return nil, errs.Validation("to must be after from")
	}
	ent, err := s.series.Get(ctx, tenantID, seriesID)
	if err != nil {
		return nil, err
	}
	return recurrence.Expand(*ent, from, to), nil
}

// CalendarWindow expands every visible series over [from, to] into one
// chronological list.
func (s *MeetingService) CalendarWindow(ctx context.Context, tenantID string, branchID *string, from, to time.Time) ([]model.Occurrence, error) {
	if !to.After(from) {
		return nil, errs.Validation("to must be after from")
	}
	ents, err := s.series.List(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	var out []model.Occurrence
	for i := range ents {
		if branchID != nil && ents[i].BranchID != nil && *ents[i].BranchID != *branchID {
			continue
		}
		out = append(out, recurrence.Expand(ents[i], from, to)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].SeriesID < out[j].SeriesID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out, nil
}

func validateRecurrence(r *model.Recurrence) error {
	if r == nil {
		return nil
	}
	switch r.Frequency {
	case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyCustom:
	default:
		return errs.Validation("unknown recurrence frequency %q", r.Frequency)
	}
	// Zero means "not set"; the expander defaults it to 1.
	if r.Interval < 0 {
		return errs.Validation("recurrence interval must not be negative")
	}
	for _, wd := range r.ByWeekday {
		if wd < 0 || wd > 6 {
			return errs.Validation("weekday %d out of range 0..6", wd)
		}
	}
	if r.ByMonthDay < 0 || r.ByMonthDay > 31 {
		return errs.Validation("by_month_day %d out of range 1..31", r.ByMonthDay)
	}
	return nil
}

func entityToSeries(ent *model.MeetingSeries) *model.Series {
	return &model.Series{
		ID:          ent.ID,
		TenantID:    ent.TenantID,
		BranchID:    ent.BranchID,
		Title:       ent.Title,
		Description: ent.Description,
		StartAt:     ent.StartAt,
		EndAt:       ent.EndAt,
		Timezone:    ent.Timezone,
		Recurrence:  ent.Recurrence,
		CreatedAt:   ent.CreatedAt,
	}
}
