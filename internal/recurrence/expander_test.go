package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

func ts(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func weeklySeries(start time.Time, rec *model.Recurrence) model.MeetingSeries {
	return model.MeetingSeries{
		ID:         "series-1",
		TenantID:   "tenant-1",
		Title:      "Midweek service",
		StartAt:    start,
		Recurrence: rec,
	}
}

func TestExpand_NoRecurrence(t *testing.T) {
	t.Parallel()

	start := ts(2024, time.May, 10, 19, 0)
	end := start.Add(2 * time.Hour)
	series := model.MeetingSeries{ID: "s1", Title: "One-off", StartAt: start, EndAt: &end}

	t.Run("returns the series itself when it overlaps the window", func(t *testing.T) {
		t.Parallel()
		got := Expand(series, ts(2024, time.May, 1, 0, 0), ts(2024, time.May, 31, 0, 0))
		require.Len(t, got, 1)
		assert.Equal(t, "s1:2024-05-10T19:00:00Z", got[0].ID)
		assert.True(t, got[0].StartAt.Equal(start))
		require.NotNil(t, got[0].EndAt)
		assert.True(t, got[0].EndAt.Equal(end))
	})

	t.Run("returns nothing outside the window", func(t *testing.T) {
		t.Parallel()
		got := Expand(series, ts(2024, time.June, 1, 0, 0), ts(2024, time.June, 30, 0, 0))
		assert.Empty(t, got)
	})

	t.Run("duration counts toward overlap", func(t *testing.T) {
		t.Parallel()
		// Window starts after the occurrence start but before its end.
		got := Expand(series, ts(2024, time.May, 10, 20, 0), ts(2024, time.May, 31, 0, 0))
		assert.Len(t, got, 1)
	})
}

func TestExpand_Weekly(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday.
	start := ts(2024, time.January, 1, 18, 0)

	t.Run("every Monday across four weeks", func(t *testing.T) {
		t.Parallel()
		series := weeklySeries(start, &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			Interval:  1,
			ByWeekday: []int{1},
		})
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.January, 22, 23, 59))
		require.Len(t, got, 4)
		for i, day := range []int{1, 8, 15, 22} {
			assert.True(t, got[i].StartAt.Equal(ts(2024, time.January, day, 18, 0)), "occurrence %d", i)
		}
	})

	t.Run("defaults to the weekday of the series start", func(t *testing.T) {
		t.Parallel()
		series := weeklySeries(start, &model.Recurrence{Frequency: model.FrequencyWeekly})
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.January, 15, 23, 59))
		require.Len(t, got, 3)
		for _, occ := range got {
			assert.Equal(t, time.Monday, occ.StartAt.Weekday())
			assert.Equal(t, 18, occ.StartAt.Hour())
		}
	})

	t.Run("interval skips whole weeks", func(t *testing.T) {
		t.Parallel()
		series := weeklySeries(start, &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			Interval:  2,
			ByWeekday: []int{1},
		})
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.February, 1, 0, 0))
		require.Len(t, got, 3)
		for i, day := range []int{1, 15, 29} {
			assert.True(t, got[i].StartAt.Equal(ts(2024, time.January, day, 18, 0)), "occurrence %d", i)
		}
	})

	t.Run("discards candidates before the series start", func(t *testing.T) {
		t.Parallel()
		// Sunday of the anchor week (Dec 31) precedes the Monday start.
		series := weeklySeries(start, &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			ByWeekday: []int{0, 1},
		})
		got := Expand(series, ts(2023, time.December, 24, 0, 0), ts(2024, time.January, 8, 23, 59))
		require.NotEmpty(t, got)
		for _, occ := range got {
			assert.False(t, occ.StartAt.Before(start), "occurrence %s precedes series start", occ.StartAt)
		}
		assert.True(t, got[0].StartAt.Equal(start))
	})

	t.Run("until bounds the expansion", func(t *testing.T) {
		t.Parallel()
		until := ts(2024, time.January, 10, 0, 0)
		series := weeklySeries(start, &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			ByWeekday: []int{1},
			Until:     &until,
		})
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.March, 1, 0, 0))
		require.Len(t, got, 2)
		for _, occ := range got {
			assert.False(t, occ.StartAt.After(until))
		}
	})

	t.Run("multiple weekdays come out sorted and unique", func(t *testing.T) {
		t.Parallel()
		series := weeklySeries(start, &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			ByWeekday: []int{5, 1, 3, 1},
		})
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.January, 7, 23, 59))
		require.Len(t, got, 3) // Mon 1, Wed 3, Fri 5
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].StartAt.Before(got[i].StartAt))
		}
		seen := map[string]bool{}
		for _, occ := range got {
			assert.False(t, seen[occ.ID], "duplicate occurrence %s", occ.ID)
			seen[occ.ID] = true
		}
	})
}

func TestExpand_MonthlySkipsShortMonths(t *testing.T) {
	t.Parallel()

	start := ts(2024, time.January, 31, 12, 0)
	series := model.MeetingSeries{
		ID:      "s-monthly",
		Title:   "Month end review",
		StartAt: start,
		Recurrence: &model.Recurrence{
			Frequency:  model.FrequencyMonthly,
			Interval:   1,
			ByMonthDay: 31,
		},
	}

	got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.April, 1, 0, 0))
	require.Len(t, got, 2)
	assert.True(t, got[0].StartAt.Equal(ts(2024, time.January, 31, 12, 0)))
	assert.True(t, got[1].StartAt.Equal(ts(2024, time.March, 31, 12, 0)))
	// February has no day 31 and must not roll over to March 1.
	for _, occ := range got {
		assert.NotEqual(t, time.February, occ.StartAt.Month())
	}
}

func TestExpand_Monthly(t *testing.T) {
	t.Parallel()

	t.Run("defaults to the day of the series start", func(t *testing.T) {
		t.Parallel()
		start := ts(2024, time.January, 15, 9, 30)
		series := model.MeetingSeries{
			ID:         "s2",
			Title:      "Board meeting",
			StartAt:    start,
			Recurrence: &model.Recurrence{Frequency: model.FrequencyMonthly},
		}
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.March, 31, 0, 0))
		require.Len(t, got, 3)
		for i, m := range []time.Month{time.January, time.February, time.March} {
			assert.Equal(t, m, got[i].StartAt.Month())
			assert.Equal(t, 15, got[i].StartAt.Day())
			assert.Equal(t, 9, got[i].StartAt.Hour())
		}
	})

	t.Run("interval skips months", func(t *testing.T) {
		t.Parallel()
		start := ts(2024, time.January, 10, 8, 0)
		series := model.MeetingSeries{
			ID:         "s3",
			Title:      "Quarterly sync",
			StartAt:    start,
			Recurrence: &model.Recurrence{Frequency: model.FrequencyMonthly, Interval: 3},
		}
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.December, 31, 0, 0))
		require.Len(t, got, 4)
		for i, m := range []time.Month{time.January, time.April, time.July, time.October} {
			assert.Equal(t, m, got[i].StartAt.Month())
		}
	})

	t.Run("until stops the expansion", func(t *testing.T) {
		t.Parallel()
		start := ts(2024, time.January, 10, 8, 0)
		until := ts(2024, time.February, 20, 0, 0)
		series := model.MeetingSeries{
			ID:      "s4",
			Title:   "Sync",
			StartAt: start,
			Recurrence: &model.Recurrence{
				Frequency: model.FrequencyMonthly,
				Until:     &until,
			},
		}
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.June, 1, 0, 0))
		require.Len(t, got, 2)
		for _, occ := range got {
			assert.False(t, occ.StartAt.After(until))
			assert.False(t, occ.StartAt.Before(start))
		}
	})
}

func TestExpand_CustomDispatch(t *testing.T) {
	t.Parallel()

	t.Run("month day configured means monthly", func(t *testing.T) {
		t.Parallel()
		start := ts(2024, time.January, 5, 7, 0)
		series := model.MeetingSeries{
			ID:      "s5",
			Title:   "Custom monthly",
			StartAt: start,
			Recurrence: &model.Recurrence{
				Frequency:  model.FrequencyCustom,
				ByMonthDay: 5,
			},
		}
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.March, 31, 0, 0))
		require.Len(t, got, 3)
		for _, occ := range got {
			assert.Equal(t, 5, occ.StartAt.Day())
		}
	})

	t.Run("weekday set means weekly", func(t *testing.T) {
		t.Parallel()
		start := ts(2024, time.January, 1, 7, 0)
		series := model.MeetingSeries{
			ID:      "s6",
			Title:   "Custom weekly",
			StartAt: start,
			Recurrence: &model.Recurrence{
				Frequency: model.FrequencyCustom,
				ByWeekday: []int{1},
			},
		}
		got := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.January, 15, 23, 0))
		require.Len(t, got, 3)
		for _, occ := range got {
			assert.Equal(t, time.Monday, occ.StartAt.Weekday())
		}
	})
}

func TestExpand_Deterministic(t *testing.T) {
	t.Parallel()

	start := ts(2024, time.January, 1, 18, 0)
	series := weeklySeries(start, &model.Recurrence{
		Frequency: model.FrequencyWeekly,
		ByWeekday: []int{1, 4},
	})
	first := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.February, 15, 0, 0))
	second := Expand(series, ts(2024, time.January, 1, 0, 0), ts(2024, time.February, 15, 0, 0))
	require.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].StartAt.Before(first[i].StartAt), "occurrences must be start-ordered")
	}
}

func TestExpand_DurationShiftsEnd(t *testing.T) {
	t.Parallel()

	start := ts(2024, time.January, 1, 18, 0)
	end := start.Add(90 * time.Minute)
	series := model.MeetingSeries{
		ID:      "s7",
		Title:   "Evening study",
		StartAt: start,
		EndAt:   &end,
		Recurrence: &model.Recurrence{
			Frequency: model.FrequencyWeekly,
			ByWeekday: []int{1},
		},
	}
	got := Expand(series, ts(2024, time.January, 8, 0, 0), ts(2024, time.January, 8, 23, 59))
	require.Len(t, got, 1)
	require.NotNil(t, got[0].EndAt)
	assert.Equal(t, 90*time.Minute, got[0].EndAt.Sub(got[0].StartAt))
}
