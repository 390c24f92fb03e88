package content

import "context"

// Repository is the read port for the lesson catalog.
type Repository interface {
	// ListLessons returns the catalog ordered by position.
	ListLessons(ctx context.Context) ([]Lesson, error)

	// GetLesson fetches one lesson with its body. Returns
	// shared.ErrLessonNotFound when absent.
	GetLesson(ctx context.Context, lessonID int64) (*Lesson, error)

	// GetLessonWithTest fetches a lesson together with its test and
	// questions. Test is nil when the lesson has no quiz.
	GetLessonWithTest(ctx context.Context, lessonID int64) (*LessonWithTest, error)
}
