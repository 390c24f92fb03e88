package progress

import (
	"context"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// Repository is the persistence port for the append-only progress history.
type Repository interface {
	// ListLessonEvents returns all lesson progress events for the user,
	// newest first.
	ListLessonEvents(ctx context.Context, userID shared.UserID) ([]LessonProgressEvent, error)

	// ListTestResults returns all test result events for the user,
	// newest first.
	ListTestResults(ctx context.Context, userID shared.UserID) ([]TestResultEvent, error)

	// AppendLessonEvent inserts a lesson progress event.
	AppendLessonEvent(ctx context.Context, e *LessonProgressEvent) error

	// AppendTestResult inserts a test result event.
	AppendTestResult(ctx context.Context, e *TestResultEvent) error

	// HasCompletedLesson reports whether the user already has a completed
	// event for the lesson.
	HasCompletedLesson(ctx context.Context, userID shared.UserID, lessonID int64) (bool, error)
}
