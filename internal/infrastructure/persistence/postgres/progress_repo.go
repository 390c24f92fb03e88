package postgres

import (
	"context"
	"fmt"

	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ProgressRepository implements progress.Repository backed by the
// lesson_progress and test_results tables. Both are append-only; the
// aggregator recomputes derived values from the full history on each read.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// ListLessonEvents returns all lesson progress events for the user, newest first.
func (r *ProgressRepository) ListLessonEvents(ctx context.Context, userID shared.UserID) ([]progress.LessonProgressEvent, error) {
	query := `
		SELECT id, user_id, lesson_id, completed, completed_at
		FROM lesson_progress
		WHERE user_id = $1
		ORDER BY completed_at DESC`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query lesson progress: %w", err)
	}
	defer rows.Close()

	var events []progress.LessonProgressEvent
	for rows.Next() {
		var (
			e  progress.LessonProgressEvent
			id string
		)
		if err := rows.Scan(&e.ID, &id, &e.LessonID, &e.Completed, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan lesson progress row: %w", err)
		}
		e.UserID = shared.UserID(id)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListTestResults returns all test result events for the user, newest first.
func (r *ProgressRepository) ListTestResults(ctx context.Context, userID shared.UserID) ([]progress.TestResultEvent, error) {
	query := `
		SELECT id, user_id, test_id, score, total_questions, is_perfect_score, submitted_at
		FROM test_results
		WHERE user_id = $1
		ORDER BY submitted_at DESC`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query test results: %w", err)
	}
	defer rows.Close()

	var results []progress.TestResultEvent
	for rows.Next() {
		var (
			e  progress.TestResultEvent
			id string
		)
		if err := rows.Scan(&e.ID, &id, &e.TestID, &e.Score, &e.TotalQuestions, &e.IsPerfectScore, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan test result row: %w", err)
		}
		e.UserID = shared.UserID(id)
		results = append(results, e)
	}
	return results, rows.Err()
}

// AppendLessonEvent inserts a lesson progress event.
func (r *ProgressRepository) AppendLessonEvent(ctx context.Context, e *progress.LessonProgressEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, completed, completed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.conn.QueryRow(ctx, query,
		e.UserID.String(), e.LessonID, e.Completed, e.CompletedAt,
	).Scan(&e.ID)
	if err != nil {
		// user_id references profiles(id): an insert for an unprovisioned
		// user is a missing profile, not a store outage.
		if IsForeignKeyViolation(err) {
			return shared.ErrProfileNotFound
		}
		return shared.WrapError("progress", "Append", shared.ErrExternalService, "failed to append lesson progress event", err)
	}
	return nil
}

// AppendTestResult inserts a test result event.
func (r *ProgressRepository) AppendTestResult(ctx context.Context, e *progress.TestResultEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO test_results (user_id, test_id, score, total_questions, is_perfect_score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.conn.QueryRow(ctx, query,
		e.UserID.String(), e.TestID, e.Score, e.TotalQuestions, e.IsPerfectScore, e.SubmittedAt,
	).Scan(&e.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrProfileNotFound
		}
		return shared.WrapError("progress", "Append", shared.ErrExternalService, "failed to append test result event", err)
	}
	return nil
}

// HasCompletedLesson reports whether the user already completed the lesson.
func (r *ProgressRepository) HasCompletedLesson(ctx context.Context, userID shared.UserID, lessonID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM lesson_progress
			WHERE user_id = $1 AND lesson_id = $2 AND completed
		)`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, userID.String(), lessonID).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: failed to check lesson completion: %w", err)
	}
	return exists, nil
}
