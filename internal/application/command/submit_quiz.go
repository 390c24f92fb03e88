package command

import (
	"context"
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Scores the session and records the attempt. Every submission appends a
// test result row; the pass-only completion side effects run through the
// session's completion callback.
// ══════════════════════════════════════════════════════════════════════════════

// completionTimeout bounds the persistence work triggered by a passing
// submission, which runs on its own context.
const completionTimeout = 10 * time.Second

// SubmitQuizCommand submits all recorded answers for scoring.
type SubmitQuizCommand struct {
	UserID    string
	SessionID string
}

// Validate checks command parameters.
func (c *SubmitQuizCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if c.SessionID == "" {
		return shared.ErrSessionNotFound
	}
	return nil
}

// SubmitQuizResult is the scored outcome.
type SubmitQuizResult struct {
	Score  int            `json:"score"`
	Total  int            `json:"total"`
	Passed bool           `json:"passed"`
	Review map[int64]bool `json:"review"`
}

// SubmitQuizHandler handles quiz submission.
type SubmitQuizHandler struct {
	sessions     *quiz.Manager
	progressRepo progress.Repository
	publisher    shared.EventPublisher
	log          *logger.Logger
}

// NewSubmitQuizHandler creates a new handler.
func NewSubmitQuizHandler(
	sessions *quiz.Manager,
	progressRepo progress.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *SubmitQuizHandler {
	return &SubmitQuizHandler{
		sessions:     sessions,
		progressRepo: progressRepo,
		publisher:    publisher,
		log:          log.With(logger.Component("submit_quiz")),
	}
}

// Handle scores the session and appends the result to the test history.
// The append happens for passing and failing submissions alike; a history
// write failure is logged but does not invalidate the already-scored
// submission the user is looking at.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(cmd.UserID)

	session, err := h.sessions.Get(cmd.SessionID, userID)
	if err != nil {
		return nil, err
	}

	res, err := session.Submit()
	if err != nil {
		return nil, err
	}

	event := &progress.TestResultEvent{
		UserID:         userID,
		TestID:         session.TestID(),
		Score:          res.Score,
		TotalQuestions: res.Total,
		IsPerfectScore: res.Passed,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := h.progressRepo.AppendTestResult(ctx, event); err != nil {
		h.log.Error("test result append failed",
			logger.UserID(cmd.UserID),
			logger.TestID(session.TestID()),
			logger.Err(err),
		)
	}

	if h.publisher != nil {
		submitted := shared.NewTestSubmittedEvent(cmd.UserID, session.TestID(), res.Score, res.Total, res.Passed)
		if err := h.publisher.Publish(ctx, submitted); err != nil {
			h.log.Warn("test event publish failed", logger.UserID(cmd.UserID), logger.Err(err))
		}
	}

	h.log.Info("quiz submitted",
		logger.UserID(cmd.UserID),
		logger.TestID(session.TestID()),
		logger.Int("score", res.Score),
		logger.Int("total", res.Total),
	)

	return &SubmitQuizResult{
		Score:  res.Score,
		Total:  res.Total,
		Passed: res.Passed,
		Review: res.Review,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION RECORDER
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecorder persists the side effects of a passing submission: the
// completed-lesson event, the denormalized profile counters, and the
// lesson.completed notification. It is wired into each session as its
// completion callback.
type CompletionRecorder struct {
	profileRepo  profile.Repository
	progressRepo progress.Repository
	publisher    shared.EventPublisher
	log          *logger.Logger
}

// NewCompletionRecorder creates a new recorder.
func NewCompletionRecorder(
	profileRepo profile.Repository,
	progressRepo progress.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CompletionRecorder {
	return &CompletionRecorder{
		profileRepo:  profileRepo,
		progressRepo: progressRepo,
		publisher:    publisher,
		log:          log.With(logger.Component("completion_recorder")),
	}
}

// OnPass returns the completion callback for one session. The callback runs
// on its own context so completion persistence survives the submitting
// request being cancelled mid-write.
func (r *CompletionRecorder) OnPass(userID shared.UserID, lessonID, testID int64) quiz.CompletionFunc {
	return func(score, total int) {
		ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		r.record(ctx, userID, lessonID, testID, score, total)
	}
}

func (r *CompletionRecorder) record(ctx context.Context, userID shared.UserID, lessonID, testID int64, score, total int) {
	// Every pass is a full score, so the perfect-test counter always moves.
	if _, err := r.profileRepo.IncrementTestsCompleted(ctx, userID); err != nil {
		r.log.Warn("test counter increment failed", logger.UserID(userID.String()), logger.Err(err))
	}

	done, err := r.progressRepo.HasCompletedLesson(ctx, userID, lessonID)
	if err != nil {
		r.log.Warn("completion check failed",
			logger.UserID(userID.String()),
			logger.LessonID(lessonID),
			logger.Err(err),
		)
		done = false
	}
	if done {
		return
	}

	event := &progress.LessonProgressEvent{
		UserID:      userID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: time.Now().UTC(),
	}
	if err := r.progressRepo.AppendLessonEvent(ctx, event); err != nil {
		r.log.Error("lesson completion append failed",
			logger.UserID(userID.String()),
			logger.LessonID(lessonID),
			logger.Err(err),
		)
		return
	}
	if _, err := r.profileRepo.IncrementLessonsCompleted(ctx, userID); err != nil {
		r.log.Warn("lesson counter increment failed", logger.UserID(userID.String()), logger.Err(err))
	}

	if r.publisher != nil {
		completed := shared.NewLessonCompletedEvent(userID.String(), lessonID)
		if err := r.publisher.Publish(ctx, completed); err != nil {
			r.log.Warn("lesson event publish failed", logger.UserID(userID.String()), logger.Err(err))
		}
	}

	r.log.Info("lesson completed",
		logger.UserID(userID.String()),
		logger.LessonID(lessonID),
		logger.TestID(testID),
		logger.Int("score", score),
		logger.Int("total", total),
	)
}
