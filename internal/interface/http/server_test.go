package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/application/command"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

const (
	testSecret = "test-secret"
	testUserID = "7a1c4b2d-9e8f-4a6b-b3c5-0d2e4f6a8c1b"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := DefaultConfig()
	config.JWTSecret = testSecret
	config.RateLimitPerMinute = 0

	log := logger.New(logger.Options{Output: io.Discard})
	sessions := quiz.NewManager(0)

	return NewServer(config, Dependencies{
		CloseQuizHandler: command.NewCloseQuizHandler(sessions, log),
		Logger:           log,
	})
}

func signToken(t *testing.T, subject, email string, secret string) string {
	t.Helper()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.buildMiddlewareChain(s.router).ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointIsPublic(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = doRequest(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRejectsWrongSecret(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/quiz/some-session", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID, "m@example.com", "other-secret"))
	rec := doRequest(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteAcceptsValidToken(t *testing.T) {
	s := newTestServer(t)

	// Closing an unknown session is a no-op, so a valid token yields 200.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/quiz/some-session", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testUserID, "m@example.com", testSecret))
	rec := doRequest(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := doRequest(s, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"session not found", shared.ErrSessionNotFound, http.StatusNotFound},
		{"lesson not found", shared.ErrLessonNotFound, http.StatusNotFound},
		{"already submitted", shared.ErrAlreadySubmitted, http.StatusConflict},
		{"unanswered question", shared.ErrUnansweredQuestion, http.StatusUnprocessableEntity},
		{"invalid user id", shared.ErrInvalidUserID, http.StatusBadRequest},
		{"option out of range", shared.ErrOptionOutOfRange, http.StatusBadRequest},
		{"quiz unavailable", shared.ErrQuizUnavailable, http.StatusServiceUnavailable},
		{"dictionary rate limited", shared.ErrDictionaryRateLimited, http.StatusTooManyRequests},
		{"wrong password", shared.ErrWrongPassword, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusFromError(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}
