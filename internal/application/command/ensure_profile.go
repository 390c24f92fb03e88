package command

import (
	"context"
	"errors"
	"strings"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENSURE PROFILE COMMAND
// First-login provisioning: creates the profile row for an authenticated
// user if it does not exist yet. Concurrent first logins race on the insert;
// the loser re-reads the winner's row.
// ══════════════════════════════════════════════════════════════════════════════

// EnsureProfileCommand provisions a profile for an authenticated user.
type EnsureProfileCommand struct {
	UserID   string
	Email    string
	Username string
}

// Validate checks command parameters.
func (c *EnsureProfileCommand) Validate() error {
	_, err := shared.NewUserID(c.UserID)
	return err
}

// EnsureProfileHandler handles profile provisioning.
type EnsureProfileHandler struct {
	profileRepo profile.Repository
	mirror      profile.Mirror
	publisher   shared.EventPublisher
	log         *logger.Logger
}

// NewEnsureProfileHandler creates a new handler.
func NewEnsureProfileHandler(
	profileRepo profile.Repository,
	mirror profile.Mirror,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *EnsureProfileHandler {
	return &EnsureProfileHandler{
		profileRepo: profileRepo,
		mirror:      mirror,
		publisher:   publisher,
		log:         log.With(logger.Component("ensure_profile")),
	}
}

// Handle returns the existing profile or creates a fresh one.
func (h *EnsureProfileHandler) Handle(ctx context.Context, cmd EnsureProfileCommand) (*profile.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(cmd.UserID)

	existing, err := h.profileRepo.GetByID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	p := profile.New(userID, deriveUsername(cmd.Username, cmd.Email), cmd.Email)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := h.profileRepo.Create(ctx, p); err != nil {
		if errors.Is(err, shared.ErrProfileAlreadyExists) {
			// Lost the race against a concurrent first login.
			return h.profileRepo.GetByID(ctx, userID)
		}
		return nil, err
	}

	if err := h.mirror.SetProfile(ctx, p); err != nil {
		h.log.Warn("mirror write failed", logger.UserID(cmd.UserID), logger.Err(err))
	}
	if h.publisher != nil {
		event := shared.NewProfileCreatedEvent(cmd.UserID, p.Username)
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.log.Warn("profile event publish failed", logger.UserID(cmd.UserID), logger.Err(err))
		}
	}

	h.log.Info("profile created", logger.UserID(cmd.UserID))
	return p, nil
}

func deriveUsername(username, email string) string {
	if username != "" {
		return username
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "Пользователь"
}
