package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

func TestEnsureProfile_CreatesOnFirstLogin(t *testing.T) {
	profiles := newFakeProfileRepo()
	mirror := newFakeMirror()
	publisher := &fakePublisher{}
	handler := NewEnsureProfileHandler(profiles, mirror, publisher, testLogger())

	created, err := handler.Handle(context.Background(), EnsureProfileCommand{
		UserID: testUserID,
		Email:  "rita@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "rita", created.Username)
	assert.Equal(t, shared.VisibilityEveryone, created.PrivacyProfile)
	assert.NotNil(t, profiles.get(shared.UserID(testUserID)))
	assert.Contains(t, publisher.eventTypes(), shared.EventTypeProfileCreated)

	mirrored, err := mirror.GetProfile(context.Background(), shared.UserID(testUserID))
	require.NoError(t, err)
	assert.Equal(t, "rita", mirrored.Username)
}

func TestEnsureProfile_ReturnsExisting(t *testing.T) {
	profiles := newFakeProfileRepo()
	existing := profile.New(shared.UserID(testUserID), "margarita", "m@example.com")
	existing.LessonsCompleted = 5
	profiles.profiles[shared.UserID(testUserID)] = existing

	publisher := &fakePublisher{}
	handler := NewEnsureProfileHandler(profiles, newFakeMirror(), publisher, testLogger())

	got, err := handler.Handle(context.Background(), EnsureProfileCommand{
		UserID: testUserID,
		Email:  "m@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "margarita", got.Username)
	assert.Equal(t, 5, got.LessonsCompleted)
	assert.Empty(t, publisher.eventTypes())
}

func TestEnsureProfile_LosesRaceGracefully(t *testing.T) {
	profiles := newFakeProfileRepo()

	// The winner's row exists, but the first read misses it and the insert
	// collides. The handler must fall back to re-reading the winner.
	profiles.profiles[shared.UserID(testUserID)] = profile.New(shared.UserID(testUserID), "winner", "w@example.com")
	profiles.missFirstGet = true
	profiles.createErr = shared.ErrProfileAlreadyExists

	handler := NewEnsureProfileHandler(profiles, newFakeMirror(), &fakePublisher{}, testLogger())

	got, err := handler.Handle(context.Background(), EnsureProfileCommand{UserID: testUserID})
	require.NoError(t, err)
	assert.Equal(t, "winner", got.Username)
}

func TestEnsureProfile_UsernameFallsBackWithoutEmail(t *testing.T) {
	profiles := newFakeProfileRepo()
	handler := NewEnsureProfileHandler(profiles, newFakeMirror(), &fakePublisher{}, testLogger())

	created, err := handler.Handle(context.Background(), EnsureProfileCommand{UserID: testUserID})
	require.NoError(t, err)
	assert.Equal(t, "Пользователь", created.Username)
}
