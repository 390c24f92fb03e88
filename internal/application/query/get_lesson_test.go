package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/content"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

type fakeContentRepo struct {
	lessons map[int64]*content.LessonWithTest
}

func (f *fakeContentRepo) ListLessons(_ context.Context) ([]content.Lesson, error) {
	lessons := make([]content.Lesson, 0, len(f.lessons))
	for _, lt := range f.lessons {
		lessons = append(lessons, lt.Lesson)
	}
	return lessons, nil
}

func (f *fakeContentRepo) GetLesson(_ context.Context, lessonID int64) (*content.Lesson, error) {
	lt, ok := f.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return &lt.Lesson, nil
}

func (f *fakeContentRepo) GetLessonWithTest(_ context.Context, lessonID int64) (*content.LessonWithTest, error) {
	lt, ok := f.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return lt, nil
}

func catalogFixture() *fakeContentRepo {
	return &fakeContentRepo{lessons: map[int64]*content.LessonWithTest{
		10: {
			Lesson: content.Lesson{ID: 10, Title: "Животные", Level: "A1", Position: 1, Body: "Словарь по теме."},
			Test: &content.Test{
				ID:       10,
				LessonID: 10,
				Title:    "Животные: тест",
				Questions: []quiz.Question{
					{ID: 100, Text: "Перевод слова cat", Options: []quiz.Option{
						{Text: "кошка", IsCorrect: true},
						{Text: "собака"},
					}},
				},
			},
		},
		11: {
			Lesson: content.Lesson{ID: 11, Title: "Цвета", Level: "A1", Position: 2},
		},
	}}
}

func TestGetLesson_SanitizesAnswers(t *testing.T) {
	handler := NewGetLessonHandler(catalogFixture(), &fakeProgressRepo{})

	result, err := handler.Handle(context.Background(), GetLessonQuery{UserID: testUserID, LessonID: 10})
	require.NoError(t, err)

	assert.Equal(t, "Животные", result.Lesson.Title)
	require.NotNil(t, result.Test)
	require.Len(t, result.Test.Questions, 1)
	assert.Equal(t, []string{"кошка", "собака"}, result.Test.Questions[0].Options)
	assert.False(t, result.Completed)
}

func TestGetLesson_WithoutQuiz(t *testing.T) {
	handler := NewGetLessonHandler(catalogFixture(), &fakeProgressRepo{})

	result, err := handler.Handle(context.Background(), GetLessonQuery{UserID: testUserID, LessonID: 11})
	require.NoError(t, err)
	assert.Nil(t, result.Test)
}

func TestGetLesson_NotFound(t *testing.T) {
	handler := NewGetLessonHandler(catalogFixture(), &fakeProgressRepo{})

	_, err := handler.Handle(context.Background(), GetLessonQuery{UserID: testUserID, LessonID: 99})
	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

func TestGetLesson_Validation(t *testing.T) {
	handler := NewGetLessonHandler(catalogFixture(), &fakeProgressRepo{})

	_, err := handler.Handle(context.Background(), GetLessonQuery{UserID: "bad", LessonID: 10})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	_, err = handler.Handle(context.Background(), GetLessonQuery{UserID: testUserID, LessonID: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidLessonID)
}

func TestListLessons_CompletionFlags(t *testing.T) {
	progressRepo := &fakeProgressRepo{lessonEvents: []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true},
		{ID: 2, UserID: shared.UserID(testUserID), LessonID: 11, Completed: false},
	}}
	handler := NewGetLessonHandler(catalogFixture(), progressRepo)

	result, err := handler.HandleList(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, result.Lessons, 2)

	byID := make(map[int64]LessonSummaryDTO, len(result.Lessons))
	for _, l := range result.Lessons {
		byID[l.ID] = l
	}
	assert.True(t, byID[10].Completed)
	assert.False(t, byID[11].Completed)
	// The catalog view never carries lesson bodies.
	assert.Equal(t, "Цвета", byID[11].Title)
}
