package quiz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// Manager tracks live quiz sessions by ID. Sessions are in-memory only and
// are dropped on close or expiry; a server restart simply discards them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// DefaultSessionTTL bounds how long an abandoned session is retained.
const DefaultSessionTTL = 2 * time.Hour

// NewManager creates a session manager. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Start creates and registers a new session for the question set.
func (m *Manager) Start(userID shared.UserID, lessonID, testID int64, questions []Question, onPass CompletionFunc) (*Session, error) {
	s, err := NewSession(uuid.New().String(), userID, lessonID, testID, questions, onPass)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.evictExpiredLocked()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session owned by the user, or shared.ErrSessionNotFound.
// Ownership is checked so one user cannot submit another's quiz.
func (m *Manager) Get(id string, userID shared.UserID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.UserID() != userID {
		return nil, shared.ErrSessionNotFound
	}
	return s, nil
}

// Close removes the session and discards its state. Closing an unknown
// session is a no-op.
func (m *Manager) Close(id string, userID shared.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID() != userID {
		return
	}
	s.Close()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) evictExpiredLocked() {
	cutoff := time.Now().UTC().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.createdAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
