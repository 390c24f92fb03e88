package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ProfileMirror implements profile.Mirror on top of the cache. Values are
// overwritten wholesale on each successful remote read; there is no
// partial-field merge.
type ProfileMirror struct {
	cache *Cache
}

// NewProfileMirror creates a new profile mirror.
func NewProfileMirror(cache *Cache) *ProfileMirror {
	return &ProfileMirror{cache: cache}
}

func profileKey(userID shared.UserID) string {
	return PrefixMirrorProfile + userID.String()
}

func unlockedKey(userID shared.UserID) string {
	return PrefixMirrorUnlocked + userID.String()
}

func streakKey(userID shared.UserID) string {
	return PrefixMirrorStreak + userID.String()
}

// GetProfile returns the mirrored profile, or shared.ErrNotFound on miss.
func (m *ProfileMirror) GetProfile(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	var p profile.Profile
	err := m.cache.Get(ctx, profileKey(userID), &p)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.WrapError("mirror", "GetProfile", shared.ErrNotFound, "no mirrored profile", nil)
		}
		return nil, fmt.Errorf("mirror: failed to read profile: %w", err)
	}
	return &p, nil
}

// SetProfile stores the profile snapshot.
func (m *ProfileMirror) SetProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return ErrCacheNilValue
	}
	return m.cache.Set(ctx, profileKey(p.UserID), p, TTLProfileMirror)
}

// GetUnlockedCount returns the persisted unlocked achievement count.
func (m *ProfileMirror) GetUnlockedCount(ctx context.Context, userID shared.UserID) (int, bool, error) {
	return m.getInt(ctx, unlockedKey(userID), "GetUnlockedCount")
}

// SetUnlockedCount persists the unlocked achievement count.
func (m *ProfileMirror) SetUnlockedCount(ctx context.Context, userID shared.UserID, count int) error {
	if count < 0 {
		return shared.WrapError("mirror", "SetUnlockedCount", shared.ErrNegativeValue, "unlocked count cannot be negative", nil)
	}
	return m.cache.SetString(ctx, unlockedKey(userID), strconv.Itoa(count), TTLUnlockedCount)
}

// GetStreak returns the last observed streak value.
func (m *ProfileMirror) GetStreak(ctx context.Context, userID shared.UserID) (int, bool, error) {
	return m.getInt(ctx, streakKey(userID), "GetStreak")
}

// SetStreak persists the last observed streak value.
func (m *ProfileMirror) SetStreak(ctx context.Context, userID shared.UserID, days int) error {
	if days < 0 {
		return shared.WrapError("mirror", "SetStreak", shared.ErrNegativeValue, "streak cannot be negative", nil)
	}
	return m.cache.SetString(ctx, streakKey(userID), strconv.Itoa(days), TTLStreakValue)
}

func (m *ProfileMirror) getInt(ctx context.Context, key, op string) (int, bool, error) {
	raw, err := m.cache.GetString(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("mirror: %s: %w", op, err)
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		// A corrupted value is treated as absent so the caller re-initializes it.
		return 0, false, nil
	}
	return value, true, nil
}
