package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/broadcast-service/internal/errs"
	"github.com/psds-microservice/broadcast-service/internal/model"
)

type memSeries struct {
	series map[string]*model.MeetingSeries
}

func newMemSeries() *memSeries {
	return &memSeries{series: map[string]*model.MeetingSeries{}}
}

func (m *memSeries) Create(_ context.Context, ent *model.MeetingSeries) error {
	cp := *ent
	m.series[ent.ID] = &cp
	return nil
}

func (m *memSeries) Get(_ context.Context, tenantID, seriesID string) (*model.MeetingSeries, error) {
	ent, ok := m.series[seriesID]
	if !ok || ent.TenantID != tenantID {
		return nil, errs.ErrSeriesNotFound
	}
	cp := *ent
	return &cp, nil
}

func (m *memSeries) List(_ context.Context, tenantID string, branchID *string) ([]model.MeetingSeries, error) {
	var out []model.MeetingSeries
	for _, ent := range m.series {
		if ent.TenantID != tenantID {
			continue
		}
		if branchID != nil && (ent.BranchID == nil || *ent.BranchID != *branchID) {
			continue
		}
		out = append(out, *ent)
	}
	return out, nil
}

func (m *memSeries) Save(_ context.Context, ent *model.MeetingSeries) error {
	cp := *ent
	m.series[ent.ID] = &cp
	return nil
}

func (m *memSeries) Delete(_ context.Context, tenantID, seriesID string) error {
	ent, ok := m.series[seriesID]
	if !ok || ent.TenantID != tenantID {
		return errs.ErrSeriesNotFound
	}
	delete(m.series, seriesID)
	return nil
}

func TestMeetingService_CreateValidates(t *testing.T) {
	svc := NewMeetingService(newMemSeries())
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)

	_, err := svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Prayer",
		StartAt:    start,
		Recurrence: &model.Recurrence{Frequency: "DAILY"},
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	end := start.Add(-time.Hour)
	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title: "Prayer", StartAt: start, EndAt: &end,
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Prayer",
		StartAt:    start,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, ByWeekday: []int{7}},
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Prayer",
		StartAt:    start,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: -1},
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	// Zero interval is the unset default, not an error.
	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Prayer",
		StartAt:    start,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 0},
	})
	require.NoError(t, err)
}

func TestMeetingService_BranchScopedListing(t *testing.T) {
	svc := NewMeetingService(newMemSeries())
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	branchA := "branch-a"
	branchB := "branch-b"

	_, err := svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{Title: "All-tenant", StartAt: start})
	require.NoError(t, err)
	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{Title: "A only", StartAt: start, BranchID: &branchA})
	require.NoError(t, err)
	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{Title: "B only", StartAt: start, BranchID: &branchB})
	require.NoError(t, err)

	all, err := svc.ListSeries(ctx, "t1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Branch viewers see their branch plus unscoped series.
	scoped, err := svc.ListSeries(ctx, "t1", &branchA)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	titles := []string{scoped[0].Title, scoped[1].Title}
	assert.ElementsMatch(t, []string{"All-tenant", "A only"}, titles)
}

func TestMeetingService_OccurrencesWindow(t *testing.T) {
	svc := NewMeetingService(newMemSeries())
	ctx := context.Background()

	created, err := svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Midweek",
		StartAt:    time.Date(2024, 1, 3, 19, 0, 0, 0, time.UTC),
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly},
	})
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	occs, err := svc.Occurrences(ctx, "t1", created.ID, from, to)
	require.NoError(t, err)
	require.Len(t, occs, 5)
	assert.Equal(t, created.ID+":2024-01-03T19:00:00Z", occs[0].ID)

	_, err = svc.Occurrences(ctx, "t1", created.ID, to, from)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Occurrences(ctx, "t2", created.ID, from, to)
	require.ErrorIs(t, err, errs.ErrSeriesNotFound)
}

func TestMeetingService_CalendarWindowMergesAndSorts(t *testing.T) {
	svc := NewMeetingService(newMemSeries())
	ctx := context.Background()

	_, err := svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Sunday",
		StartAt:    time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC),
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly},
	})
	require.NoError(t, err)
	_, err = svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:      "Wednesday",
		StartAt:    time.Date(2024, 1, 3, 19, 0, 0, 0, time.UTC),
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly},
	})
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)
	occs, err := svc.CalendarWindow(ctx, "t1", nil, from, to)
	require.NoError(t, err)
	require.Len(t, occs, 4)
	for i := 1; i < len(occs); i++ {
		assert.False(t, occs[i].StartAt.Before(occs[i-1].StartAt), "window must be chronological")
	}
}

func TestMeetingService_UpdateSeries(t *testing.T) {
	svc := NewMeetingService(newMemSeries())
	ctx := context.Background()

	created, err := svc.CreateSeries(ctx, "t1", model.CreateSeriesRequest{
		Title:   "Choir",
		StartAt: time.Date(2024, 2, 1, 17, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	title := "Choir Practice"
	rec := &model.Recurrence{Frequency: model.FrequencyMonthly, ByMonthDay: 1}
	updated, err := svc.UpdateSeries(ctx, "t1", created.ID, model.UpdateSeriesRequest{
		Title:      &title,
		Recurrence: rec,
	})
	require.NoError(t, err)
	assert.Equal(t, "Choir Practice", updated.Title)
	require.NotNil(t, updated.Recurrence)
	assert.Equal(t, model.FrequencyMonthly, updated.Recurrence.Frequency)

	require.NoError(t, svc.DeleteSeries(ctx, "t1", created.ID))
	_, err = svc.GetSeries(ctx, "t1", created.ID)
	require.ErrorIs(t, err, errs.ErrSeriesNotFound)
}
