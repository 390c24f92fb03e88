// Package quiz implements the ephemeral test session state machine: a fetched
// question set, per-question answer selection, full-answer submission, and
// lock-out once a submission lands.
package quiz

import (
	"sync"
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// Option is one answer choice. The correctness flag is held server-side and
// never serialized toward the client before submission.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"-"`
}

// Question is one quiz question with its options.
type Question struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// State is the session lifecycle state.
type State string

const (
	// StateReady permits free answer re-selection until submission.
	StateReady State = "ready"
	// StateSubmitted is terminal. Retrying means opening a new session.
	StateSubmitted State = "submitted"
)

// Result is the outcome of a submission.
type Result struct {
	Score  int  `json:"score"`
	Total  int  `json:"total"`
	Passed bool `json:"passed"`

	// Review maps question ID to whether the selected option was correct.
	// Populated only after submission.
	Review map[int64]bool `json:"review"`
}

// CompletionFunc is invoked exactly once, on a passing submission only,
// with the final score and question total.
type CompletionFunc func(score, total int)

// Session is one in-progress quiz for one user. Sessions are never persisted;
// closing discards all selection state. Methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	userID    shared.UserID
	lessonID  int64
	testID    int64
	questions []Question
	selected  map[int64]int // question ID -> option index
	state     State
	result    *Result
	createdAt time.Time

	onPass CompletionFunc
}

// NewSession creates a session in the Ready state. An empty question set is
// rejected: a quiz with nothing to answer could otherwise be trivially
// "passed" with a zero score.
func NewSession(id string, userID shared.UserID, lessonID, testID int64, questions []Question, onPass CompletionFunc) (*Session, error) {
	if len(questions) == 0 {
		return nil, shared.ErrQuizUnavailable
	}
	for i := range questions {
		if len(questions[i].Options) == 0 {
			return nil, shared.WrapError("quiz", "Start", shared.ErrInvalidEntity, "question has no options", nil)
		}
	}
	return &Session{
		id:        id,
		userID:    userID,
		lessonID:  lessonID,
		testID:    testID,
		questions: questions,
		selected:  make(map[int64]int, len(questions)),
		state:     StateReady,
		createdAt: time.Now().UTC(),
		onPass:    onPass,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the owning user.
func (s *Session) UserID() shared.UserID { return s.userID }

// LessonID returns the lesson the quiz belongs to.
func (s *Session) LessonID() int64 { return s.lessonID }

// TestID returns the test being taken.
func (s *Session) TestID() int64 { return s.testID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Questions returns the question set. Callers must not mutate it.
func (s *Session) Questions() []Question {
	return s.questions
}

// Select records an answer for a question, overwriting any prior selection.
// Unlimited changes are permitted before submission.
func (s *Session) Select(questionID int64, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return shared.ErrAlreadySubmitted
	}
	q := s.question(questionID)
	if q == nil {
		return shared.ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return shared.ErrOptionOutOfRange
	}
	s.selected[questionID] = optionIndex
	return nil
}

// Answered returns how many questions currently have a selection.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

// Submit scores the session. Every question must have a recorded selection;
// partial submissions are rejected with no score computed and no callback
// fired. A session passes only on a full score; the completion callback runs
// exactly then, while failing submissions merely record the attempt.
func (s *Session) Submit() (Result, error) {
	s.mu.Lock()

	if s.state == StateSubmitted {
		s.mu.Unlock()
		return Result{}, shared.ErrAlreadySubmitted
	}
	if len(s.selected) < len(s.questions) {
		s.mu.Unlock()
		return Result{}, shared.ErrUnansweredQuestion
	}

	res := Result{
		Total:  len(s.questions),
		Review: make(map[int64]bool, len(s.questions)),
	}
	for i := range s.questions {
		q := &s.questions[i]
		idx := s.selected[q.ID]
		correct := q.Options[idx].IsCorrect
		res.Review[q.ID] = correct
		if correct {
			res.Score++
		}
	}
	res.Passed = res.Score == res.Total

	s.state = StateSubmitted
	s.result = &res
	onPass := s.onPass
	s.mu.Unlock()

	// The callback runs outside the lock so it can re-enter the session.
	if res.Passed && onPass != nil {
		onPass(res.Score, res.Total)
	}
	return res, nil
}

// Result returns the submission outcome, or false if not yet submitted.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Close discards all selection state. Persisted completion data already
// written is unaffected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]int)
	s.result = nil
	s.state = StateSubmitted
}

func (s *Session) question(id int64) *Question {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return &s.questions[i]
		}
	}
	return nil
}
