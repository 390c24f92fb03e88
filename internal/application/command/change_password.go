package command

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE PASSWORD COMMAND
// ══════════════════════════════════════════════════════════════════════════════

const minPasswordLength = 8

// ChangePasswordCommand replaces the account password after verifying the
// current one.
type ChangePasswordCommand struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// Validate checks command parameters.
func (c *ChangePasswordCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if c.CurrentPassword == "" {
		return shared.NewDomainError("profile", "ChangePassword", shared.ErrValidation, "текущий пароль не указан")
	}
	if len(c.NewPassword) < minPasswordLength {
		return shared.NewDomainError("profile", "ChangePassword", shared.ErrValidation, "пароль должен содержать не менее 8 символов")
	}
	if c.NewPassword == c.CurrentPassword {
		return shared.NewDomainError("profile", "ChangePassword", shared.ErrValidation, "новый пароль совпадает с текущим")
	}
	return nil
}

// ChangePasswordHandler handles password changes.
type ChangePasswordHandler struct {
	profileRepo profile.Repository
	log         *logger.Logger
}

// NewChangePasswordHandler creates a new handler.
func NewChangePasswordHandler(profileRepo profile.Repository, log *logger.Logger) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		profileRepo: profileRepo,
		log:         log.With(logger.Component("change_password")),
	}
}

// Handle verifies the current password and stores a hash of the new one.
func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePasswordCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	userID := shared.UserID(cmd.UserID)

	hash, err := h.profileRepo.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(cmd.CurrentPassword)); err != nil {
		return shared.ErrWrongPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("profile", "ChangePassword", shared.ErrInvalidInput, "password hashing failed", err)
	}
	if err := h.profileRepo.UpdatePasswordHash(ctx, userID, string(newHash)); err != nil {
		return err
	}

	h.log.Info("password changed", logger.UserID(cmd.UserID))
	return nil
}
