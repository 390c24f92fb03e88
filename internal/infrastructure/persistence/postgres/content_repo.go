package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/margo-hub/margo-learning-hub/internal/domain/content"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ContentRepository implements content.Repository backed by the lessons,
// tests, and questions tables. Question options are stored as a JSONB array
// of {text, is_correct} objects.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new content repository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// ListLessons returns the catalog ordered by position.
func (r *ContentRepository) ListLessons(ctx context.Context) ([]content.Lesson, error) {
	query := `
		SELECT id, title, description, level, position
		FROM lessons
		ORDER BY position, id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []content.Lesson
	for rows.Next() {
		var l content.Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Level, &l.Position); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// GetLesson fetches one lesson with its body.
func (r *ContentRepository) GetLesson(ctx context.Context, lessonID int64) (*content.Lesson, error) {
	query := `
		SELECT id, title, description, level, position, body
		FROM lessons
		WHERE id = $1`

	var l content.Lesson
	err := r.conn.QueryRow(ctx, query, lessonID).Scan(
		&l.ID, &l.Title, &l.Description, &l.Level, &l.Position, &l.Body,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("postgres: failed to fetch lesson: %w", err)
	}
	return &l, nil
}

// GetLessonWithTest fetches a lesson with its test and questions.
func (r *ContentRepository) GetLessonWithTest(ctx context.Context, lessonID int64) (*content.LessonWithTest, error) {
	lesson, err := r.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	result := &content.LessonWithTest{Lesson: *lesson}

	var t content.Test
	err = r.conn.QueryRow(ctx,
		`SELECT id, lesson_id, title FROM tests WHERE lesson_id = $1`, lessonID,
	).Scan(&t.ID, &t.LessonID, &t.Title)
	if err != nil {
		if IsNoRows(err) {
			// Lessons without a quiz are valid.
			return result, nil
		}
		return nil, fmt.Errorf("postgres: failed to fetch test: %w", err)
	}

	t.Questions, err = r.listQuestions(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	result.Test = &t
	return result, nil
}

// questionOption is the JSONB representation of one answer choice.
type questionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func (r *ContentRepository) listQuestions(ctx context.Context, testID int64) ([]quiz.Question, error) {
	query := `
		SELECT id, text, options
		FROM questions
		WHERE test_id = $1
		ORDER BY position, id`

	rows, err := r.conn.Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []quiz.Question
	for rows.Next() {
		var (
			q       quiz.Question
			rawOpts []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &rawOpts); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan question row: %w", err)
		}

		var opts []questionOption
		if err := json.Unmarshal(rawOpts, &opts); err != nil {
			return nil, fmt.Errorf("postgres: invalid options payload for question %d: %w", q.ID, err)
		}
		q.Options = make([]quiz.Option, len(opts))
		for i, o := range opts {
			q.Options[i] = quiz.Option{Text: o.Text, IsCorrect: o.IsCorrect}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
