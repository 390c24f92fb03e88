package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event that something happened in the system.
type Event interface {
	// EventID returns the unique identifier of the event.
	EventID() string
	// EventType returns the type name of the event (e.g., "progress.lesson_completed").
	EventType() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced the event.
	AggregateID() string
}

// BaseEvent provides common event functionality. Embed it in concrete events.
type BaseEvent struct {
	ID          string    `json:"event_id"`
	Type        string    `json:"event_type"`
	Timestamp   time.Time `json:"occurred_at"`
	AggregateId string    `json:"aggregate_id"`
}

// NewBaseEvent creates a new base event with a generated ID and current timestamp.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateId }

// Event type constants. The dot-separated naming follows "<domain>.<fact>".
const (
	EventTypeProfileCreated      = "profile.created"
	EventTypeProfileUpdated      = "profile.updated"
	EventTypePasswordChanged     = "profile.password_changed"
	EventTypeLessonCompleted     = "progress.lesson_completed"
	EventTypeTestSubmitted       = "progress.test_submitted"
	EventTypeAchievementUnlocked = "achievement.unlocked"
	EventTypeStreakUpdated       = "streak.updated"
)

// ProfileCreatedEvent is published when a new learner profile is created.
type ProfileCreatedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// NewProfileCreatedEvent creates a new profile created event.
func NewProfileCreatedEvent(userID, username string) *ProfileCreatedEvent {
	return &ProfileCreatedEvent{
		BaseEvent: NewBaseEvent(EventTypeProfileCreated, userID),
		UserID:    userID,
		Username:  username,
	}
}

// ProfileUpdatedEvent is published when profile fields change.
type ProfileUpdatedEvent struct {
	BaseEvent
	UserID        string   `json:"user_id"`
	ChangedFields []string `json:"changed_fields"`
}

// NewProfileUpdatedEvent creates a new profile updated event.
func NewProfileUpdatedEvent(userID string, changedFields []string) *ProfileUpdatedEvent {
	return &ProfileUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventTypeProfileUpdated, userID),
		UserID:        userID,
		ChangedFields: changedFields,
	}
}

// LessonCompletedEvent is published when a learner finishes a lesson
// (by passing the lesson's test).
type LessonCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID int64  `json:"lesson_id"`
}

// NewLessonCompletedEvent creates a new lesson completed event.
func NewLessonCompletedEvent(userID string, lessonID int64) *LessonCompletedEvent {
	return &LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeLessonCompleted, userID),
		UserID:    userID,
		LessonID:  lessonID,
	}
}

// TestSubmittedEvent is published for every test submission, pass or fail.
type TestSubmittedEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	TestID         int64  `json:"test_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	Passed         bool   `json:"passed"`
}

// NewTestSubmittedEvent creates a new test submitted event.
func NewTestSubmittedEvent(userID string, testID int64, score, total int, passed bool) *TestSubmittedEvent {
	return &TestSubmittedEvent{
		BaseEvent:      NewBaseEvent(EventTypeTestSubmitted, userID),
		UserID:         userID,
		TestID:         testID,
		Score:          score,
		TotalQuestions: total,
		Passed:         passed,
	}
}

// AchievementUnlockedEvent is published at most once per achievement per user,
// when the unlocked count first grows past a threshold.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	AchievementIndex int    `json:"achievement_index"`
	Title            string `json:"title"`
	UnlockedCount    int    `json:"unlocked_count"`
}

// NewAchievementUnlockedEvent creates a new achievement unlocked event.
func NewAchievementUnlockedEvent(userID string, index int, title string, unlockedCount int) *AchievementUnlockedEvent {
	return &AchievementUnlockedEvent{
		BaseEvent:        NewBaseEvent(EventTypeAchievementUnlocked, userID),
		UserID:           userID,
		AchievementIndex: index,
		Title:            title,
		UnlockedCount:    unlockedCount,
	}
}

// StreakUpdatedEvent is published when a recomputed streak differs from the
// previously observed value.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

// NewStreakUpdatedEvent creates a new streak updated event.
func NewStreakUpdatedEvent(userID string, days int) *StreakUpdatedEvent {
	return &StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(EventTypeStreakUpdated, userID),
		UserID:    userID,
		Days:      days,
	}
}

// EventHandler processes domain events.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not retried.
	Handle(ctx context.Context, event Event) error
	// CanHandle reports whether this handler is interested in the event type.
	CanHandle(eventType string) bool
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish publishes an event to all interested subscribers.
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber subscribes handlers to events.
type EventSubscriber interface {
	// Subscribe registers a handler for one or more event types.
	Subscribe(handler EventHandler, eventTypes ...string)
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
