package query

import (
	"context"

	"github.com/margo-hub/margo-learning-hub/internal/domain/content"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON QUERY
// Fetches one lesson (or the whole catalog) for the authenticated user,
// annotated with completion state. Question correctness flags never leave
// the server here; they surface only through quiz submission.
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonQuery contains parameters for a single-lesson read.
type GetLessonQuery struct {
	UserID   string
	LessonID int64
}

// Validate checks query parameters.
func (q *GetLessonQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return err
	}
	_, err := shared.NewLessonID(q.LessonID)
	return err
}

// QuestionDTO is a question as exposed to the client: option texts only.
type QuestionDTO struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// TestDTO is the lesson's quiz without correctness data.
type TestDTO struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Questions []QuestionDTO `json:"questions"`
}

// GetLessonResult is the single-lesson payload.
type GetLessonResult struct {
	Lesson    content.Lesson `json:"lesson"`
	Test      *TestDTO       `json:"test,omitempty"`
	Completed bool           `json:"completed"`
}

// LessonSummaryDTO is one catalog row.
type LessonSummaryDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Level       string `json:"level,omitempty"`
	Completed   bool   `json:"completed"`
}

// ListLessonsResult is the catalog payload.
type ListLessonsResult struct {
	Lessons []LessonSummaryDTO `json:"lessons"`
}

// GetLessonHandler handles lesson reads.
type GetLessonHandler struct {
	contentRepo  content.Repository
	progressRepo progress.Repository
}

// NewGetLessonHandler creates a new handler.
func NewGetLessonHandler(contentRepo content.Repository, progressRepo progress.Repository) *GetLessonHandler {
	return &GetLessonHandler{
		contentRepo:  contentRepo,
		progressRepo: progressRepo,
	}
}

// Handle fetches one lesson with its sanitized test.
func (h *GetLessonHandler) Handle(ctx context.Context, query GetLessonQuery) (*GetLessonResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(query.UserID)

	lt, err := h.contentRepo.GetLessonWithTest(ctx, query.LessonID)
	if err != nil {
		return nil, err
	}

	completed, err := h.progressRepo.HasCompletedLesson(ctx, userID, query.LessonID)
	if err != nil {
		// Completion state is decoration on this path; degrade to false.
		completed = false
	}

	result := &GetLessonResult{
		Lesson:    lt.Lesson,
		Completed: completed,
	}
	if lt.Test != nil {
		result.Test = sanitizeTest(lt.Test)
	}
	return result, nil
}

// HandleList fetches the lesson catalog with per-lesson completion flags.
func (h *GetLessonHandler) HandleList(ctx context.Context, rawUserID string) (*ListLessonsResult, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	lessons, err := h.contentRepo.ListLessons(ctx)
	if err != nil {
		return nil, err
	}

	completedIDs := make(map[int64]struct{})
	if events, err := h.progressRepo.ListLessonEvents(ctx, userID); err == nil {
		for _, e := range events {
			if e.Completed {
				completedIDs[e.LessonID] = struct{}{}
			}
		}
	}

	result := &ListLessonsResult{Lessons: make([]LessonSummaryDTO, len(lessons))}
	for i, l := range lessons {
		_, done := completedIDs[l.ID]
		result.Lessons[i] = LessonSummaryDTO{
			ID:          l.ID,
			Title:       l.Title,
			Description: l.Description,
			Level:       l.Level,
			Completed:   done,
		}
	}
	return result, nil
}

func sanitizeTest(t *content.Test) *TestDTO {
	dto := &TestDTO{
		ID:        t.ID,
		Title:     t.Title,
		Questions: make([]QuestionDTO, len(t.Questions)),
	}
	for i, q := range t.Questions {
		options := make([]string, len(q.Options))
		for j, o := range q.Options {
			options[j] = o.Text
		}
		dto.Questions[i] = QuestionDTO{ID: q.ID, Text: q.Text, Options: options}
	}
	return dto
}
