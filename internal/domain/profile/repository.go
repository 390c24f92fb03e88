package profile

import (
	"context"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// Repository is the persistence port for profiles, backed by the record store.
type Repository interface {
	// GetByID fetches a profile. Returns shared.ErrProfileNotFound when absent.
	GetByID(ctx context.Context, userID shared.UserID) (*Profile, error)

	// Create inserts a new profile. Returns shared.ErrProfileAlreadyExists on
	// a duplicate user ID.
	Create(ctx context.Context, p *Profile) error

	// Update persists the editable fields and the updated_at timestamp.
	Update(ctx context.Context, p *Profile) error

	// IncrementLessonsCompleted bumps the denormalized lesson counter by one
	// and returns the new value.
	IncrementLessonsCompleted(ctx context.Context, userID shared.UserID) (int, error)

	// IncrementTestsCompleted bumps the denormalized test counter by one
	// and returns the new value.
	IncrementTestsCompleted(ctx context.Context, userID shared.UserID) (int, error)

	// GetPasswordHash returns the stored bcrypt hash for the user.
	GetPasswordHash(ctx context.Context, userID shared.UserID) (string, error)

	// UpdatePasswordHash replaces the stored bcrypt hash.
	UpdatePasswordHash(ctx context.Context, userID shared.UserID, hash string) error
}

// Mirror is the local-mirror port: a small per-user cache that keeps the
// dashboard usable when the record store is unreachable, and holds the
// previously-observed unlocked achievement count used for edge-triggered
// celebration.
type Mirror interface {
	// GetProfile returns the mirrored profile, or shared.ErrNotFound on miss.
	GetProfile(ctx context.Context, userID shared.UserID) (*Profile, error)

	// SetProfile stores the profile in the mirror.
	SetProfile(ctx context.Context, p *Profile) error

	// GetUnlockedCount returns the previously persisted unlocked achievement
	// count. found is false when no value has been stored for the user yet.
	GetUnlockedCount(ctx context.Context, userID shared.UserID) (count int, found bool, err error)

	// SetUnlockedCount persists the unlocked achievement count.
	SetUnlockedCount(ctx context.Context, userID shared.UserID, count int) error

	// GetStreak returns the last observed streak value. found is false when
	// no value has been stored yet.
	GetStreak(ctx context.Context, userID shared.UserID) (days int, found bool, err error)

	// SetStreak persists the last observed streak value.
	SetStreak(ctx context.Context, userID shared.UserID, days int) error
}
