// Package eventhandler contains domain event handlers. They are the
// reactive side of the system: subscribed to the in-process event bus,
// they run side effects such as congratulation messages and mirror
// refreshes without blocking the request that produced the event.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnAchievementUnlockedHandler reacts to a newly unlocked achievement with a
// congratulation message. Delivery is a log record for now; the handler is
// the single place a push channel would plug into.
type OnAchievementUnlockedHandler struct {
	logger *slog.Logger
}

// NewOnAchievementUnlockedHandler creates the handler.
func NewOnAchievementUnlockedHandler(logger *slog.Logger) *OnAchievementUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnAchievementUnlockedHandler{logger: logger}
}

// CanHandle reports the event types this handler is interested in.
func (h *OnAchievementUnlockedHandler) CanHandle(eventType string) bool {
	return eventType == shared.EventTypeAchievementUnlocked
}

// Handle processes the achievement.unlocked event.
func (h *OnAchievementUnlockedHandler) Handle(_ context.Context, event shared.Event) error {
	unlocked, ok := event.(*shared.AchievementUnlockedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	h.logger.Info("поздравляем с новым достижением",
		slog.String("user_id", unlocked.UserID),
		slog.String("achievement", unlocked.Title),
		slog.Int("unlocked_count", unlocked.UnlockedCount),
	)
	return nil
}
