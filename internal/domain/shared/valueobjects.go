package shared

import (
	"strings"

	"github.com/google/uuid"
)

// UserID is the identity of a learner, issued by the auth provider as a UUID.
type UserID string

// NewUserID validates and creates a UserID.
func NewUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", WrapError("shared", "NewUserID", ErrEmptyValue, "user ID cannot be empty", nil)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", WrapError("shared", "NewUserID", ErrInvalidID, "user ID must be a valid UUID", err)
	}
	return UserID(raw), nil
}

// String returns the string representation.
func (id UserID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id UserID) IsZero() bool { return id == "" }

// LessonID identifies a lesson in the content catalog.
type LessonID int64

// NewLessonID validates and creates a LessonID.
func NewLessonID(raw int64) (LessonID, error) {
	if raw <= 0 {
		return 0, ErrInvalidLessonID
	}
	return LessonID(raw), nil
}

// Int64 returns the numeric value.
func (id LessonID) Int64() int64 { return int64(id) }

// TestID identifies a lesson's test.
type TestID int64

// Int64 returns the numeric value.
func (id TestID) Int64() int64 { return int64(id) }

// Visibility is a profile privacy setting. The values are the user-facing
// option labels stored verbatim, so the web client can render them directly.
type Visibility string

const (
	VisibilityEveryone Visibility = "Доступ для всех"
	VisibilityOnlyMe   Visibility = "Только для меня"
	VisibilityFriends  Visibility = "Только для друзей"
)

// NewVisibility validates a visibility value, defaulting empty input to
// VisibilityEveryone.
func NewVisibility(raw string) (Visibility, error) {
	v := Visibility(strings.TrimSpace(raw))
	switch v {
	case "":
		return VisibilityEveryone, nil
	case VisibilityEveryone, VisibilityOnlyMe, VisibilityFriends:
		return v, nil
	default:
		return "", WrapError("shared", "NewVisibility", ErrValueOutOfRange, "unknown visibility option", nil)
	}
}

// String returns the stored label.
func (v Visibility) String() string { return string(v) }

// Username is a display name chosen by the learner.
type Username string

const (
	minUsernameLen = 2
	maxUsernameLen = 32
)

// NewUsername validates and creates a Username.
func NewUsername(raw string) (Username, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", WrapError("shared", "NewUsername", ErrEmptyValue, "username cannot be empty", nil)
	}
	if len(raw) < minUsernameLen || len(raw) > maxUsernameLen {
		return "", WrapError("shared", "NewUsername", ErrValueOutOfRange, "username length must be between 2 and 32 characters", nil)
	}
	return Username(raw), nil
}

// String returns the string representation.
func (u Username) String() string { return string(u) }
