package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON LESSON COMPLETED HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnLessonCompletedHandler refreshes the mirrored profile after a lesson
// completion bumped the denormalized counters, so a record-store outage
// right after a completion still shows the new numbers.
type OnLessonCompletedHandler struct {
	profileRepo profile.Repository
	mirror      profile.Mirror
	logger      *slog.Logger
}

// NewOnLessonCompletedHandler creates the handler.
func NewOnLessonCompletedHandler(profileRepo profile.Repository, mirror profile.Mirror, logger *slog.Logger) *OnLessonCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLessonCompletedHandler{
		profileRepo: profileRepo,
		mirror:      mirror,
		logger:      logger,
	}
}

// CanHandle reports the event types this handler is interested in.
func (h *OnLessonCompletedHandler) CanHandle(eventType string) bool {
	return eventType == shared.EventTypeLessonCompleted
}

// Handle processes the progress.lesson_completed event.
func (h *OnLessonCompletedHandler) Handle(ctx context.Context, event shared.Event) error {
	completed, ok := event.(*shared.LessonCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	userID, err := shared.NewUserID(completed.UserID)
	if err != nil {
		return err
	}

	p, err := h.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("profile refresh after completion: %w", err)
	}
	if err := h.mirror.SetProfile(ctx, p); err != nil {
		return fmt.Errorf("mirror refresh after completion: %w", err)
	}

	h.logger.Debug("mirror refreshed after lesson completion",
		slog.String("user_id", completed.UserID),
		slog.Int64("lesson_id", completed.LessonID),
	)
	return nil
}
