package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/margo-hub/margo-learning-hub/internal/application/command"
	"github.com/margo-hub/margo-learning-hub/internal/application/query"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "MarGO Learning Hub API",
		"version":     "v1",
		"description": "REST API for the MarGO language learning hub",
		"endpoints": map[string]string{
			"health":     "/health",
			"dashboard":  "/api/v1/dashboard",
			"lessons":    "/api/v1/lessons",
			"quiz":       "/api/v1/quiz",
			"dictionary": "/api/v1/dictionary/lookup",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/dashboard
//
// The dashboard is the first authenticated read after login, so it also
// provisions the profile row for first-time users. A provisioning failure is
// tolerated: the dashboard query synthesizes a profile of its own when the
// record store has none.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.EnsureProfileHandler != nil {
		if _, err := s.deps.EnsureProfileHandler.Handle(r.Context(), command.EnsureProfileCommand{
			UserID: authUserID(r.Context()),
			Email:  authEmail(r.Context()),
		}); err != nil {
			s.logger.Warn("profile provisioning failed",
				logger.String("user_id", authUserID(r.Context())),
				logger.Err(err),
			)
		}
	}

	result, err := s.deps.GetDashboardHandler.Handle(r.Context(), query.GetDashboardQuery{
		UserID: authUserID(r.Context()),
		Email:  authEmail(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListLessons handles GET /api/v1/lessons
func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetLessonHandler.HandleList(r.Context(), authUserID(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err, "failed to list lessons")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetLesson handles GET /api/v1/lessons/{id}
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_lesson_id", "Lesson ID must be a number")
		return
	}

	result, err := s.deps.GetLessonHandler.Handle(r.Context(), query.GetLessonQuery{
		UserID:   authUserID(r.Context()),
		LessonID: lessonID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get lesson")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type startQuizRequest struct {
	LessonID int64 `json:"lesson_id"`
}

// handleStartQuiz handles POST /api/v1/quiz
func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.StartQuizHandler.Handle(r.Context(), command.StartQuizCommand{
		UserID:   authUserID(r.Context()),
		LessonID: req.LessonID,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to start quiz")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type selectAnswerRequest struct {
	QuestionID  int64 `json:"question_id"`
	OptionIndex int   `json:"option_index"`
}

// handleSelectAnswer handles POST /api/v1/quiz/{id}/answer
func (s *Server) handleSelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req selectAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SelectAnswerHandler.Handle(r.Context(), command.SelectAnswerCommand{
		UserID:      authUserID(r.Context()),
		SessionID:   r.PathValue("id"),
		QuestionID:  req.QuestionID,
		OptionIndex: req.OptionIndex,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to record answer")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSubmitQuiz handles POST /api/v1/quiz/{id}/submit
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.SubmitQuizHandler.Handle(r.Context(), command.SubmitQuizCommand{
		UserID:    authUserID(r.Context()),
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to submit quiz")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCloseQuiz handles DELETE /api/v1/quiz/{id}
func (s *Server) handleCloseQuiz(w http.ResponseWriter, r *http.Request) {
	err := s.deps.CloseQuizHandler.Handle(r.Context(), command.CloseQuizCommand{
		UserID:    authUserID(r.Context()),
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to close quiz")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type saveProfileRequest struct {
	Username        *string `json:"username"`
	Job             *string `json:"job"`
	City            *string `json:"city"`
	Country         *string `json:"country"`
	Status          *string `json:"status"`
	AvatarURL       *string `json:"avatar_url"`
	PrivacyProfile  *string `json:"privacy_profile"`
	PrivacyStats    *string `json:"privacy_stats"`
	PrivacyActivity *string `json:"privacy_activity"`
}

// handleSaveProfile handles PUT /api/v1/profile
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SaveProfileHandler.Handle(r.Context(), command.SaveProfileCommand{
		UserID:          authUserID(r.Context()),
		Username:        req.Username,
		Job:             req.Job,
		City:            req.City,
		Country:         req.Country,
		Status:          req.Status,
		AvatarURL:       req.AvatarURL,
		PrivacyProfile:  req.PrivacyProfile,
		PrivacyStats:    req.PrivacyStats,
		PrivacyActivity: req.PrivacyActivity,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleChangePassword handles POST /api/v1/profile/password
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.deps.ChangePasswordHandler.Handle(r.Context(), command.ChangePasswordCommand{
		UserID:          authUserID(r.Context()),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		s.writeDomainError(w, r, err, "failed to change password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// ══════════════════════════════════════════════════════════════════════════════
// DICTIONARY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleLookupWord handles GET /api/v1/dictionary/lookup
func (s *Server) handleLookupWord(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.LookupWordHandler.Handle(r.Context(), query.LookupWordQuery{
		Text:      r.URL.Query().Get("text"),
		Direction: getQueryParam(r, "lang", ""),
	})
	if err != nil {
		s.writeDomainError(w, r, err, "dictionary lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody decodes the JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeDomainError translates a domain error into an HTTP status and body.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	status, code := statusFromError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(logMessage,
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
	}

	message := err.Error()
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	writeJSONError(w, status, code, message)
}

// statusFromError maps domain error kinds to HTTP status codes.
func statusFromError(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrAlreadyDone):
		return http.StatusConflict, "already_done"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrInvalidState):
		return http.StatusUnprocessableEntity, "invalid_state"
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrExternalService):
		return http.StatusServiceUnavailable, "service_unavailable"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
