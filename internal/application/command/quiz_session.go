// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/margo-hub/margo-learning-hub/internal/domain/content"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ SESSION COMMANDS
// Opening, answering, and closing a quiz session. Sessions live in memory
// only; nothing here touches the record store until a passing submission.
// ══════════════════════════════════════════════════════════════════════════════

// StartQuizCommand opens a quiz session for a lesson's test.
type StartQuizCommand struct {
	UserID   string
	LessonID int64
}

// Validate checks command parameters.
func (c *StartQuizCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	_, err := shared.NewLessonID(c.LessonID)
	return err
}

// QuizQuestionDTO is a question as sent to the quiz taker: option texts only.
type QuizQuestionDTO struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// StartQuizResult describes the opened session.
type StartQuizResult struct {
	SessionID string            `json:"session_id"`
	TestID    int64             `json:"test_id"`
	Title     string            `json:"title"`
	Questions []QuizQuestionDTO `json:"questions"`
}

// StartQuizHandler handles quiz session creation.
type StartQuizHandler struct {
	contentRepo content.Repository
	sessions    *quiz.Manager
	completion  *CompletionRecorder
	log         *logger.Logger
}

// NewStartQuizHandler creates a new handler.
func NewStartQuizHandler(
	contentRepo content.Repository,
	sessions *quiz.Manager,
	completion *CompletionRecorder,
	log *logger.Logger,
) *StartQuizHandler {
	return &StartQuizHandler{
		contentRepo: contentRepo,
		sessions:    sessions,
		completion:  completion,
		log:         log.With(logger.Component("start_quiz")),
	}
}

// Handle fetches the lesson's question set and opens a session over it.
// A lesson without a quiz, or a quiz whose question set could not be
// fetched, yields shared.ErrQuizUnavailable rather than an empty session.
func (h *StartQuizHandler) Handle(ctx context.Context, cmd StartQuizCommand) (*StartQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(cmd.UserID)

	lt, err := h.contentRepo.GetLessonWithTest(ctx, cmd.LessonID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		h.log.Warn("question set fetch failed",
			logger.UserID(cmd.UserID),
			logger.LessonID(cmd.LessonID),
			logger.Err(err),
		)
		return nil, shared.ErrQuizUnavailable
	}
	if lt.Test == nil {
		return nil, shared.ErrQuizUnavailable
	}

	onPass := h.completion.OnPass(userID, cmd.LessonID, lt.Test.ID)
	session, err := h.sessions.Start(userID, cmd.LessonID, lt.Test.ID, lt.Test.Questions, onPass)
	if err != nil {
		return nil, err
	}

	h.log.Info("quiz session opened",
		logger.UserID(cmd.UserID),
		logger.LessonID(cmd.LessonID),
		logger.SessionID(session.ID()),
	)

	result := &StartQuizResult{
		SessionID: session.ID(),
		TestID:    lt.Test.ID,
		Title:     lt.Test.Title,
		Questions: make([]QuizQuestionDTO, len(lt.Test.Questions)),
	}
	for i, q := range lt.Test.Questions {
		options := make([]string, len(q.Options))
		for j, o := range q.Options {
			options[j] = o.Text
		}
		result.Questions[i] = QuizQuestionDTO{ID: q.ID, Text: q.Text, Options: options}
	}
	return result, nil
}

// SelectAnswerCommand records an answer choice in an open session.
type SelectAnswerCommand struct {
	UserID      string
	SessionID   string
	QuestionID  int64
	OptionIndex int
}

// Validate checks command parameters.
func (c *SelectAnswerCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if c.SessionID == "" {
		return shared.ErrSessionNotFound
	}
	return nil
}

// SelectAnswerResult reports selection progress.
type SelectAnswerResult struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// SelectAnswerHandler handles answer selection.
type SelectAnswerHandler struct {
	sessions *quiz.Manager
}

// NewSelectAnswerHandler creates a new handler.
func NewSelectAnswerHandler(sessions *quiz.Manager) *SelectAnswerHandler {
	return &SelectAnswerHandler{sessions: sessions}
}

// Handle records the selection, overwriting any previous choice for the
// question.
func (h *SelectAnswerHandler) Handle(_ context.Context, cmd SelectAnswerCommand) (*SelectAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	session, err := h.sessions.Get(cmd.SessionID, shared.UserID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	if err := session.Select(cmd.QuestionID, cmd.OptionIndex); err != nil {
		return nil, err
	}
	return &SelectAnswerResult{
		Answered: session.Answered(),
		Total:    len(session.Questions()),
	}, nil
}

// CloseQuizCommand abandons a session, discarding its selections.
type CloseQuizCommand struct {
	UserID    string
	SessionID string
}

// CloseQuizHandler handles session abandonment.
type CloseQuizHandler struct {
	sessions *quiz.Manager
	log      *logger.Logger
}

// NewCloseQuizHandler creates a new handler.
func NewCloseQuizHandler(sessions *quiz.Manager, log *logger.Logger) *CloseQuizHandler {
	return &CloseQuizHandler{
		sessions: sessions,
		log:      log.With(logger.Component("close_quiz")),
	}
}

// Handle drops the session. Closing an unknown or already-closed session is
// a no-op: the client is abandoning state it no longer wants.
func (h *CloseQuizHandler) Handle(_ context.Context, cmd CloseQuizCommand) error {
	if _, err := shared.NewUserID(cmd.UserID); err != nil {
		return err
	}
	h.sessions.Close(cmd.SessionID, shared.UserID(cmd.UserID))
	h.log.Debug("quiz session closed", logger.UserID(cmd.UserID), logger.SessionID(cmd.SessionID))
	return nil
}
