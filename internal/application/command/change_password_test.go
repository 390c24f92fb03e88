package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

func TestChangePassword_Success(t *testing.T) {
	profiles := newFakeProfileRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	profiles.hashes[shared.UserID(testUserID)] = string(hash)

	handler := NewChangePasswordHandler(profiles, testLogger())
	err = handler.Handle(context.Background(), ChangePasswordCommand{
		UserID:          testUserID,
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
	})
	require.NoError(t, err)

	stored := profiles.hashes[shared.UserID(testUserID)]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("new-password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("old-password")))
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	profiles := newFakeProfileRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	profiles.hashes[shared.UserID(testUserID)] = string(hash)

	handler := NewChangePasswordHandler(profiles, testLogger())
	err = handler.Handle(context.Background(), ChangePasswordCommand{
		UserID:          testUserID,
		CurrentPassword: "guess",
		NewPassword:     "new-password",
	})
	assert.ErrorIs(t, err, shared.ErrWrongPassword)

	// The stored hash is untouched.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(profiles.hashes[shared.UserID(testUserID)]), []byte("old-password")))
}

func TestChangePassword_Validation(t *testing.T) {
	handler := NewChangePasswordHandler(newFakeProfileRepo(), testLogger())
	ctx := context.Background()

	err := handler.Handle(ctx, ChangePasswordCommand{UserID: testUserID, CurrentPassword: "old", NewPassword: "short"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = handler.Handle(ctx, ChangePasswordCommand{UserID: testUserID, NewPassword: "long-enough"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = handler.Handle(ctx, ChangePasswordCommand{UserID: testUserID, CurrentPassword: "same-pass", NewPassword: "same-pass"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
