// Package timeutil provides calendar-day utilities for MarGO Learning Hub.
// Streaks and daily activity are counted in the learner's wall-clock day,
// so every helper here works against an explicit *time.Location instead of
// assuming UTC. No external dependencies - uses only standard library.
package timeutil

import (
	"sort"
	"time"
)

// DayKeyFormat is the canonical format for calendar-day keys.
const DayKeyFormat = "2006-01-02"

// StartOfDay returns the start of the day (00:00:00) of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the end of the day (23:59:59.999999999) of t in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, loc)
}

// DayKey returns the calendar-day key ("2006-01-02") of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyFormat)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc) == DayKey(b, loc)
}

// DaysBetween returns the number of whole calendar days between a and b in
// loc (b's day minus a's day). Same day yields 0, b one day after a yields 1.
// Computed on day starts, so DST shifts do not skew the result.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	startA := StartOfDay(a, loc)
	startB := StartOfDay(b, loc)
	return int(startB.Sub(startA).Round(time.Hour).Hours() / 24)
}

// DistinctDays collects the distinct calendar days of the given timestamps
// in loc, sorted descending (most recent first). Each returned time is the
// start of its day. Zero timestamps are skipped.
func DistinctDays(timestamps []time.Time, loc *time.Location) []time.Time {
	seen := make(map[string]time.Time, len(timestamps))
	for _, ts := range timestamps {
		if ts.IsZero() {
			continue
		}
		key := DayKey(ts, loc)
		if _, ok := seen[key]; !ok {
			seen[key] = StartOfDay(ts, loc)
		}
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})
	return days
}

// ConsecutiveRun walks days (distinct, sorted descending) from the first
// entry and counts how many form an unbroken run of exactly-one-day gaps.
// An empty slice yields 0; a single day yields 1.
func ConsecutiveRun(days []time.Time, loc *time.Location) int {
	if len(days) == 0 {
		return 0
	}

	run := 1
	for i := 1; i < len(days); i++ {
		// days are deduplicated, so the gap is always >= 1
		if DaysBetween(days[i], days[i-1], loc) == 1 {
			run++
			continue
		}
		break
	}
	return run
}
