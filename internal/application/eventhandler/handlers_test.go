package eventhandler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

const testUserID = "7a1c4b2d-9e8f-4a6b-b3c5-0d2e4f6a8c1b"

type stubProfileRepo struct {
	profile.Repository
	stored *profile.Profile
}

func (s *stubProfileRepo) GetByID(_ context.Context, _ shared.UserID) (*profile.Profile, error) {
	if s.stored == nil {
		return nil, shared.ErrProfileNotFound
	}
	return s.stored, nil
}

type stubMirror struct {
	profile.Mirror
	saved *profile.Profile
}

func (s *stubMirror) SetProfile(_ context.Context, p *profile.Profile) error {
	s.saved = p
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOnAchievementUnlocked(t *testing.T) {
	handler := NewOnAchievementUnlockedHandler(discardLogger())

	assert.True(t, handler.CanHandle(shared.EventTypeAchievementUnlocked))
	assert.False(t, handler.CanHandle(shared.EventTypeLessonCompleted))

	event := shared.NewAchievementUnlockedEvent(testUserID, 1, "Первый урок", 2)
	assert.NoError(t, handler.Handle(context.Background(), event))

	// A mismatched event type is reported, not silently dropped.
	wrong := shared.NewStreakUpdatedEvent(testUserID, 3)
	assert.Error(t, handler.Handle(context.Background(), wrong))
}

func TestOnLessonCompleted_RefreshesMirror(t *testing.T) {
	userID := shared.UserID(testUserID)
	repo := &stubProfileRepo{stored: profile.New(userID, "margarita", "m@example.com")}
	repo.stored.LessonsCompleted = 3
	mirror := &stubMirror{}
	handler := NewOnLessonCompletedHandler(repo, mirror, discardLogger())

	event := shared.NewLessonCompletedEvent(testUserID, 10)
	require.NoError(t, handler.Handle(context.Background(), event))

	require.NotNil(t, mirror.saved)
	assert.Equal(t, 3, mirror.saved.LessonsCompleted)
}

func TestOnLessonCompleted_ProfileFetchFailure(t *testing.T) {
	handler := NewOnLessonCompletedHandler(&stubProfileRepo{}, &stubMirror{}, discardLogger())

	event := shared.NewLessonCompletedEvent(testUserID, 10)
	err := handler.Handle(context.Background(), event)
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}
