package command

import (
	"context"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE PROFILE COMMAND
// Partial profile edit: unset fields are left untouched, privacy labels are
// validated against the fixed visibility set, and the mirror is refreshed
// after a successful write.
// ══════════════════════════════════════════════════════════════════════════════

// SaveProfileCommand carries a partial profile edit. Nil pointers mean
// "leave unchanged".
type SaveProfileCommand struct {
	UserID string

	Username        *string
	Job             *string
	City            *string
	Country         *string
	Status          *string
	AvatarURL       *string
	PrivacyProfile  *string
	PrivacyStats    *string
	PrivacyActivity *string
}

// Validate checks command parameters.
func (c *SaveProfileCommand) Validate() error {
	_, err := shared.NewUserID(c.UserID)
	return err
}

func (c *SaveProfileCommand) update() profile.Update {
	return profile.Update{
		Username:        c.Username,
		Job:             c.Job,
		City:            c.City,
		Country:         c.Country,
		Status:          c.Status,
		AvatarURL:       c.AvatarURL,
		PrivacyProfile:  c.PrivacyProfile,
		PrivacyStats:    c.PrivacyStats,
		PrivacyActivity: c.PrivacyActivity,
	}
}

// SaveProfileHandler handles profile edits.
type SaveProfileHandler struct {
	profileRepo profile.Repository
	mirror      profile.Mirror
	publisher   shared.EventPublisher
	log         *logger.Logger
}

// NewSaveProfileHandler creates a new handler.
func NewSaveProfileHandler(
	profileRepo profile.Repository,
	mirror profile.Mirror,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *SaveProfileHandler {
	return &SaveProfileHandler{
		profileRepo: profileRepo,
		mirror:      mirror,
		publisher:   publisher,
		log:         log.With(logger.Component("save_profile")),
	}
}

// Handle applies the edit and persists it. An edit that changes nothing is
// acknowledged without a write.
func (h *SaveProfileHandler) Handle(ctx context.Context, cmd SaveProfileCommand) (*profile.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(cmd.UserID)

	p, err := h.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed, err := p.ApplyUpdate(cmd.update())
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return p, nil
	}

	if err := h.profileRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	if err := h.mirror.SetProfile(ctx, p); err != nil {
		h.log.Warn("mirror refresh failed", logger.UserID(cmd.UserID), logger.Err(err))
	}

	if h.publisher != nil {
		event := shared.NewProfileUpdatedEvent(cmd.UserID, changed)
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.log.Warn("profile event publish failed", logger.UserID(cmd.UserID), logger.Err(err))
		}
	}

	h.log.Info("profile updated",
		logger.UserID(cmd.UserID),
		logger.Int("changed_fields", len(changed)),
	)
	return p, nil
}
