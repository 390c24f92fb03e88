// Package progress computes dashboard aggregates from the learner's raw
// progress history: completed-lesson totals, perfect-test totals, the daily
// streak, and the has-perfect-test flag.
package progress

import (
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// LessonProgressEvent is one row of the lesson progress history.
type LessonProgressEvent struct {
	ID          int64         `json:"id"`
	UserID      shared.UserID `json:"user_id"`
	LessonID    int64         `json:"lesson_id"`
	Completed   bool          `json:"completed"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Validate checks event invariants before it is appended to the store.
func (e *LessonProgressEvent) Validate() error {
	if e.UserID.IsZero() {
		return shared.ErrInvalidUserID
	}
	if e.LessonID <= 0 {
		return shared.ErrInvalidLessonID
	}
	return nil
}

// TestResultEvent is one row of the test result history. Every submission is
// recorded, pass or fail.
type TestResultEvent struct {
	ID             int64         `json:"id"`
	UserID         shared.UserID `json:"user_id"`
	TestID         int64         `json:"test_id"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	IsPerfectScore bool          `json:"is_perfect_score"`
	SubmittedAt    time.Time     `json:"submitted_at"`
}

// Validate checks event invariants before it is appended to the store.
func (e *TestResultEvent) Validate() error {
	if e.UserID.IsZero() {
		return shared.ErrInvalidUserID
	}
	if e.TestID <= 0 {
		return shared.WrapError("progress", "Validate", shared.ErrInvalidID, "invalid test ID", nil)
	}
	if e.Score < 0 || e.TotalQuestions < 0 || e.Score > e.TotalQuestions {
		return shared.ErrInvalidScore
	}
	return nil
}

// CountsAsPerfect reports whether this result counts toward completed tests.
// A result qualifies either via the stored perfect flag or when a non-zero
// score equals the question total. A zero score never qualifies, so empty
// tests cannot be "perfected".
func (e *TestResultEvent) CountsAsPerfect() bool {
	if e.IsPerfectScore {
		return true
	}
	return e.Score > 0 && e.Score == e.TotalQuestions
}
