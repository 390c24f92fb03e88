// Package content holds the read-only lesson catalog: lessons, their tests,
// and test questions.
package content

import "github.com/margo-hub/margo-learning-hub/internal/domain/quiz"

// Lesson is one unit of the course catalog.
type Lesson struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Level       string `json:"level,omitempty"`
	Position    int    `json:"position"`
	Body        string `json:"body,omitempty"`
}

// Test is the quiz attached to a lesson.
type Test struct {
	ID        int64           `json:"id"`
	LessonID  int64           `json:"lesson_id"`
	Title     string          `json:"title"`
	Questions []quiz.Question `json:"questions"`
}

// LessonWithTest bundles a lesson and its test for the quiz start path.
// Test is nil when the lesson has no quiz.
type LessonWithTest struct {
	Lesson Lesson
	Test   *Test
}
