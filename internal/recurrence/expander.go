// Package recurrence expands meeting series definitions into concrete
// occurrences for a query window. Expansion is pure: no storage, no clock,
// identical inputs always yield an identical, start-ordered set.
package recurrence

import (
	"sort"
	"time"

	"github.com/psds-microservice/broadcast-service/internal/model"
)

// Expand returns every occurrence of series overlapping [rangeStart, rangeEnd].
//
// A series without recurrence yields at most one occurrence: its own
// start/end, when that interval overlaps the window. Recurring series are
// expanded per their rule, clamped by rangeEnd and the rule's Until. No
// occurrence starts before the series start or after Until.
//
// Computation happens in the series' IANA timezone when set, UTC otherwise.
func Expand(series model.MeetingSeries, rangeStart, rangeEnd time.Time) []model.Occurrence {
	loc := location(series.Timezone)
	start := series.StartAt.In(loc)
	rangeStart = rangeStart.In(loc)
	rangeEnd = rangeEnd.In(loc)

	rec := series.Recurrence
	if rec == nil {
		var end *time.Time
		if series.EndAt != nil {
			e := series.EndAt.In(loc)
			end = &e
		}
		if !overlaps(start, end, rangeStart, rangeEnd) {
			return nil
		}
		return []model.Occurrence{occurrence(series, start, end)}
	}

	switch rec.Frequency {
	case model.FrequencyMonthly:
		return expandMonthly(series, start, rangeStart, rangeEnd, loc)
	case model.FrequencyWeekly:
		return expandWeekly(series, start, rangeStart, rangeEnd, loc)
	default:
		// CUSTOM: a month-day means monthly cadence, otherwise weekly.
		if rec.ByMonthDay > 0 {
			return expandMonthly(series, start, rangeStart, rangeEnd, loc)
		}
		return expandWeekly(series, start, rangeStart, rangeEnd, loc)
	}
}

func expandWeekly(series model.MeetingSeries, start, rangeStart, rangeEnd time.Time, loc *time.Location) []model.Occurrence {
	rec := series.Recurrence
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	weekdays := normalizeWeekdays(rec.ByWeekday)
	if len(weekdays) == 0 {
		weekdays = []int{int(start.Weekday())}
	}

	until := clampUntil(rangeEnd, rec.Until, loc)

	// Anchor at the Sunday-start of the week containing the series start,
	// then fast-forward whole interval steps until the next step would pass
	// the window start.
	weekStart := start.AddDate(0, 0, -int(start.Weekday()))
	for weekStart.AddDate(0, 0, 7*interval).Before(rangeStart) {
		weekStart = weekStart.AddDate(0, 0, 7*interval)
	}

	var out []model.Occurrence
	for !weekStart.After(until) {
		for _, wd := range weekdays {
			day := weekStart.AddDate(0, 0, wd)
			cand := atTimeOf(day, start, loc)
			if cand.Before(start) {
				continue
			}
			if rec.Until != nil && cand.After(rec.Until.In(loc)) {
				continue
			}
			end := shiftedEnd(series, cand, loc)
			if overlaps(cand, end, rangeStart, until) {
				out = append(out, occurrence(series, cand, end))
			}
		}
		weekStart = weekStart.AddDate(0, 0, 7*interval)
	}
	return out
}

func expandMonthly(series model.MeetingSeries, start, rangeStart, rangeEnd time.Time, loc *time.Location) []model.Occurrence {
	rec := series.Recurrence
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	dayOfMonth := rec.ByMonthDay
	if dayOfMonth < 1 {
		dayOfMonth = start.Day()
	}
	if dayOfMonth > 31 {
		dayOfMonth = 31
	}

	until := clampUntil(rangeEnd, rec.Until, loc)

	cursor := start
	for addMonths(cursor, interval, loc).Before(rangeStart) {
		cursor = addMonths(cursor, interval, loc)
	}

	var out []model.Occurrence
	for !cursor.After(until) {
		y, m, _ := cursor.Date()
		// A month without the target day is skipped entirely, never rolled
		// forward (day 31 in a 30-day month produces nothing that month).
		if dayOfMonth > daysIn(y, m) {
			cursor = addMonths(cursor, interval, loc)
			continue
		}
		cand := time.Date(y, m, dayOfMonth, start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), loc)
		if cand.Before(start) {
			cursor = addMonths(cursor, interval, loc)
			continue
		}
		if rec.Until != nil && cand.After(rec.Until.In(loc)) {
			break
		}
		end := shiftedEnd(series, cand, loc)
		if overlaps(cand, end, rangeStart, until) {
			out = append(out, occurrence(series, cand, end))
		}
		cursor = addMonths(cursor, interval, loc)
	}
	return out
}

func occurrence(series model.MeetingSeries, start time.Time, end *time.Time) model.Occurrence {
	return model.Occurrence{
		ID:          series.ID + ":" + start.UTC().Format(time.RFC3339),
		SeriesID:    series.ID,
		Title:       series.Title,
		Description: series.Description,
		StartAt:     start,
		EndAt:       end,
		Timezone:    series.Timezone,
	}
}

// shiftedEnd applies the series duration as a fixed offset from start.
func shiftedEnd(series model.MeetingSeries, start time.Time, loc *time.Location) *time.Time {
	if series.EndAt == nil {
		return nil
	}
	e := start.Add(series.EndAt.Sub(series.StartAt))
	e = e.In(loc)
	return &e
}

// overlaps reports whether [aStart, aEnd ?? aStart] intersects [bStart, bEnd],
// bounds inclusive.
func overlaps(aStart time.Time, aEnd *time.Time, bStart, bEnd time.Time) bool {
	end := aStart
	if aEnd != nil {
		end = *aEnd
	}
	return !aStart.After(bEnd) && !end.Before(bStart)
}

func clampUntil(rangeEnd time.Time, until *time.Time, loc *time.Location) time.Time {
	if until == nil {
		return rangeEnd
	}
	u := until.In(loc)
	if u.Before(rangeEnd) {
		return u
	}
	return rangeEnd
}

// normalizeWeekdays returns the unique values of days clamped to [0..6]
// (Sunday=0), sorted ascending. Empty input yields nil.
func normalizeWeekdays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	var out []int
	for _, d := range days {
		if d < 0 {
			d = 0
		}
		if d > 6 {
			d = 6
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// atTimeOf returns day's date at template's time-of-day in loc.
func atTimeOf(day, template time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, template.Hour(), template.Minute(), template.Second(), template.Nanosecond(), loc)
}

// addMonths advances t by months, clamping the day to the target month's
// length (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, months int, loc *time.Location) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
