package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

const testUserID = shared.UserID("2a9f1c5e-6a1b-4c3d-9e8f-0a1b2c3d4e5f")

func fixedAggregator(now time.Time) *Aggregator {
	return NewAggregator(time.UTC).WithNow(func() time.Time { return now })
}

func lessonEvent(lessonID int64, completed bool, at time.Time) LessonProgressEvent {
	return LessonProgressEvent{
		UserID:      testUserID,
		LessonID:    lessonID,
		Completed:   completed,
		CompletedAt: at,
	}
}

func testResult(score, total int, perfectFlag bool, at time.Time) TestResultEvent {
	return TestResultEvent{
		UserID:         testUserID,
		TestID:         1,
		Score:          score,
		TotalQuestions: total,
		IsPerfectScore: perfectFlag,
		SubmittedAt:    at,
	}
}

func TestCompute_CompletedLessons(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	tests := []struct {
		name     string
		profile  *profile.Profile
		events   []LessonProgressEvent
		expected int
	}{
		{
			name: "distinct lesson ids counted once",
			events: []LessonProgressEvent{
				lessonEvent(1, true, now),
				lessonEvent(1, true, now.Add(-time.Hour)),
				lessonEvent(2, true, now),
			},
			expected: 2,
		},
		{
			name: "incomplete events are ignored",
			events: []LessonProgressEvent{
				lessonEvent(1, true, now),
				lessonEvent(2, false, time.Time{}),
			},
			expected: 1,
		},
		{
			name:     "empty events fall back to profile counter",
			profile:  &profile.Profile{UserID: testUserID, LessonsCompleted: 7},
			events:   nil,
			expected: 7,
		},
		{
			name:     "empty events and nil profile yield zero",
			profile:  nil,
			events:   nil,
			expected: 0,
		},
		{
			name:    "non-empty events override profile counter",
			profile: &profile.Profile{UserID: testUserID, LessonsCompleted: 99},
			events: []LessonProgressEvent{
				lessonEvent(5, true, now),
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := agg.Compute(tt.profile, tt.events, nil)
			assert.Equal(t, tt.expected, result.TotalCompletedLessons)
		})
	}
}

func TestCompute_CompletedTests(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	tests := []struct {
		name       string
		results    []TestResultEvent
		expected   int
		hasPerfect bool
	}{
		{
			name: "perfect flag counts",
			results: []TestResultEvent{
				testResult(9, 10, true, now),
			},
			expected:   1,
			hasPerfect: true,
		},
		{
			name: "score equals total counts without flag",
			results: []TestResultEvent{
				testResult(10, 10, false, now),
			},
			expected:   1,
			hasPerfect: true,
		},
		{
			name: "partial score without flag is excluded",
			results: []TestResultEvent{
				testResult(8, 10, false, now),
			},
			expected:   0,
			hasPerfect: false,
		},
		{
			name: "zero score never counts even when equal to total",
			results: []TestResultEvent{
				testResult(0, 0, false, now),
			},
			expected:   0,
			hasPerfect: false,
		},
		{
			name: "mixed results",
			results: []TestResultEvent{
				testResult(10, 10, false, now),
				testResult(8, 10, false, now),
				testResult(5, 5, true, now),
			},
			expected:   2,
			hasPerfect: true,
		},
		{
			name:       "absent events yield zero with no profile fallback",
			results:    nil,
			expected:   0,
			hasPerfect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &profile.Profile{UserID: testUserID, TestsCompleted: 42}
			result := agg.Compute(p, []LessonProgressEvent{lessonEvent(1, true, now)}, tt.results)
			assert.Equal(t, tt.expected, result.TotalCompletedTests)
			assert.Equal(t, tt.hasPerfect, result.HasPerfectTest)
		})
	}
}

func TestCompute_Streak(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	day := func(offset int) time.Time {
		return now.AddDate(0, 0, offset)
	}

	tests := []struct {
		name     string
		days     []int
		expected int
	}{
		{
			name:     "today plus two consecutive days then a gap",
			days:     []int{0, -1, -2, -5},
			expected: 3,
		},
		{
			name:     "no activity today forces zero",
			days:     []int{-1, -2},
			expected: 0,
		},
		{
			name:     "single event today",
			days:     []int{0},
			expected: 1,
		},
		{
			name:     "no activity at all",
			days:     nil,
			expected: 0,
		},
		{
			name:     "duplicate events on the same day count once",
			days:     []int{0, 0, -1, -1},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []LessonProgressEvent
			for _, d := range tt.days {
				events = append(events, lessonEvent(int64(len(events)+1), true, day(d)))
			}
			result := agg.Compute(nil, events, nil)
			assert.Equal(t, tt.expected, result.Streak)
		})
	}
}

func TestCompute_StreakMixesLessonAndTestActivity(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	lessons := []LessonProgressEvent{
		lessonEvent(1, true, now.AddDate(0, 0, -1)),
	}
	results := []TestResultEvent{
		testResult(3, 3, false, now),
	}

	result := agg.Compute(nil, lessons, results)
	assert.Equal(t, 2, result.Streak, "a test submission today extends the lesson streak")
}

func TestCompute_StreakCountsInProgressLessons(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	lessons := []LessonProgressEvent{
		lessonEvent(1, false, now),
		lessonEvent(2, true, now.AddDate(0, 0, -1)),
	}

	result := agg.Compute(nil, lessons, nil)
	assert.Equal(t, 2, result.Streak, "an in-progress lesson today keeps the streak alive")
	assert.Equal(t, 1, result.TotalCompletedLessons, "in-progress lessons still do not count as completed")
}

func TestCompute_EmptyInputs(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	agg := fixedAggregator(now)

	p := &profile.Profile{UserID: testUserID, LessonsCompleted: 3}
	result := agg.Compute(p, nil, nil)

	assert.Equal(t, 3, result.TotalCompletedLessons)
	assert.Equal(t, 0, result.TotalCompletedTests)
	assert.Equal(t, 0, result.Streak)
	assert.False(t, result.HasPerfectTest)
}

func TestTestResultEvent_Validate(t *testing.T) {
	now := time.Now()

	valid := testResult(5, 10, false, now)
	valid.TestID = 3
	require.NoError(t, valid.Validate())

	overScore := testResult(11, 10, false, now)
	overScore.TestID = 3
	assert.ErrorIs(t, overScore.Validate(), shared.ErrValueOutOfRange)

	negative := testResult(0, 10, false, now)
	negative.Score = -1
	negative.TestID = 3
	assert.ErrorIs(t, negative.Validate(), shared.ErrValueOutOfRange)

	noUser := testResult(5, 10, false, now)
	noUser.UserID = ""
	assert.Error(t, noUser.Validate())
}

func TestLessonProgressEvent_Validate(t *testing.T) {
	valid := lessonEvent(1, true, time.Now())
	require.NoError(t, valid.Validate())

	badLesson := lessonEvent(0, true, time.Now())
	assert.ErrorIs(t, badLesson.Validate(), shared.ErrInvalidID)
}
