package progress

import (
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/pkg/timeutil"
)

// Aggregates are the derived dashboard values. They are a pure function of
// the profile and the raw event collections and are recomputed on every read.
type Aggregates struct {
	TotalCompletedLessons int  `json:"total_completed_lessons"`
	TotalCompletedTests   int  `json:"total_completed_tests"`
	Streak                int  `json:"streak"`
	HasPerfectTest        bool `json:"has_perfect_test"`
}

// Aggregator computes Aggregates. The location pins calendar-day boundaries
// for streak math; now is injectable for tests.
type Aggregator struct {
	loc *time.Location
	now func() time.Time
}

// NewAggregator creates an aggregator using the given location for calendar
// day boundaries. A nil location falls back to time.Local.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{loc: loc, now: time.Now}
}

// WithNow returns a copy using the given clock. Used in tests.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	return &Aggregator{loc: a.loc, now: now}
}

// Compute derives the four aggregate values.
//
// Completed lessons count distinct lesson IDs with at least one completed
// event. When the lesson event collection is empty (a transient fetch miss
// looks identical to a genuinely empty history) the profile's denormalized
// counter is used instead, so the dashboard never flashes back to zero.
// Completed tests have no such fallback: they are only ever counted from
// authoritative event data.
func (a *Aggregator) Compute(p *profile.Profile, lessonEvents []LessonProgressEvent, testResults []TestResultEvent) Aggregates {
	agg := Aggregates{
		TotalCompletedLessons: a.completedLessons(p, lessonEvents),
		TotalCompletedTests:   countPerfect(testResults),
		Streak:                a.streak(lessonEvents, testResults),
	}
	agg.HasPerfectTest = agg.TotalCompletedTests > 0
	return agg
}

func (a *Aggregator) completedLessons(p *profile.Profile, events []LessonProgressEvent) int {
	if len(events) == 0 {
		if p != nil {
			return p.LessonsCompleted
		}
		return 0
	}
	seen := make(map[int64]struct{}, len(events))
	for _, e := range events {
		if e.Completed {
			seen[e.LessonID] = struct{}{}
		}
	}
	return len(seen)
}

func countPerfect(results []TestResultEvent) int {
	n := 0
	for i := range results {
		if results[i].CountsAsPerfect() {
			n++
		}
	}
	return n
}

// streak counts consecutive calendar days of activity ending today. Any day
// with at least one lesson event or submitted test counts as active; an
// in-progress lesson keeps the day alive just like a completed one. If
// today has no activity the streak is zero regardless of history length.
func (a *Aggregator) streak(lessonEvents []LessonProgressEvent, testResults []TestResultEvent) int {
	timestamps := make([]time.Time, 0, len(lessonEvents)+len(testResults))
	for _, e := range lessonEvents {
		if !e.CompletedAt.IsZero() {
			timestamps = append(timestamps, e.CompletedAt)
		}
	}
	for _, r := range testResults {
		if !r.SubmittedAt.IsZero() {
			timestamps = append(timestamps, r.SubmittedAt)
		}
	}

	days := timeutil.DistinctDays(timestamps, a.loc)
	if len(days) == 0 {
		return 0
	}
	if !timeutil.SameDay(days[0], a.now(), a.loc) {
		return 0
	}
	return timeutil.ConsecutiveRun(days, a.loc)
}
