// Package profile contains the learner profile entity and its persistence ports.
package profile

import (
	"strings"
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// Profile is a learner's account record. The lessons/tests counters are kept
// in sync by the write path and serve as a fallback source for the dashboard
// aggregates when the progress event collections are unreachable or empty.
type Profile struct {
	UserID   shared.UserID `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`

	// Optional profile card fields.
	Job       string `json:"job,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Status    string `json:"status,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	// Privacy settings, one per profile card section.
	PrivacyProfile  shared.Visibility `json:"privacy_profile"`
	PrivacyStats    shared.Visibility `json:"privacy_stats"`
	PrivacyActivity shared.Visibility `json:"privacy_activity"`

	// Denormalized counters maintained by the write path.
	LessonsCompleted int `json:"lessons_completed"`
	TestsCompleted   int `json:"tests_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh profile with default privacy settings.
func New(userID shared.UserID, username, email string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:          userID,
		Username:        username,
		Email:           email,
		PrivacyProfile:  shared.VisibilityEveryone,
		PrivacyStats:    shared.VisibilityEveryone,
		PrivacyActivity: shared.VisibilityEveryone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Fallback synthesizes a minimal profile for a user whose record could not be
// fetched. The dashboard stays usable with zeroed counters and a derived name.
func Fallback(userID shared.UserID, email string) *Profile {
	username := "Пользователь"
	if at := strings.IndexByte(email, '@'); at > 0 {
		username = email[:at]
	}
	return New(userID, username, email)
}

// Validate checks entity invariants.
func (p *Profile) Validate() error {
	if p.UserID.IsZero() {
		return shared.ErrInvalidUserID
	}
	if _, err := shared.NewUsername(p.Username); err != nil {
		return err
	}
	if p.LessonsCompleted < 0 || p.TestsCompleted < 0 {
		return shared.WrapError("profile", "Validate", shared.ErrNegativeValue, "progress counters cannot be negative", nil)
	}
	return nil
}

// ApplyUpdate copies the editable fields from upd onto the profile and
// returns the names of fields that actually changed. Identity, counters,
// and timestamps are never overwritten by a profile edit.
func (p *Profile) ApplyUpdate(upd Update) ([]string, error) {
	var changed []string

	if upd.Username != nil && *upd.Username != p.Username {
		if _, err := shared.NewUsername(*upd.Username); err != nil {
			return nil, err
		}
		p.Username = *upd.Username
		changed = append(changed, "username")
	}
	applyString(&p.Job, upd.Job, "job", &changed)
	applyString(&p.City, upd.City, "city", &changed)
	applyString(&p.Country, upd.Country, "country", &changed)
	applyString(&p.Status, upd.Status, "status", &changed)
	applyString(&p.AvatarURL, upd.AvatarURL, "avatar_url", &changed)

	if err := applyVisibility(&p.PrivacyProfile, upd.PrivacyProfile, "privacy_profile", &changed); err != nil {
		return nil, err
	}
	if err := applyVisibility(&p.PrivacyStats, upd.PrivacyStats, "privacy_stats", &changed); err != nil {
		return nil, err
	}
	if err := applyVisibility(&p.PrivacyActivity, upd.PrivacyActivity, "privacy_activity", &changed); err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		p.UpdatedAt = time.Now().UTC()
	}
	return changed, nil
}

func applyString(dst *string, src *string, field string, changed *[]string) {
	if src != nil && *src != *dst {
		*dst = *src
		*changed = append(*changed, field)
	}
}

func applyVisibility(dst *shared.Visibility, src *string, field string, changed *[]string) error {
	if src == nil {
		return nil
	}
	v, err := shared.NewVisibility(*src)
	if err != nil {
		return err
	}
	if v != *dst {
		*dst = v
		*changed = append(*changed, field)
	}
	return nil
}

// Update carries a partial profile edit. Nil pointers mean "leave unchanged".
type Update struct {
	Username        *string
	Job             *string
	City            *string
	Country         *string
	Status          *string
	AvatarURL       *string
	PrivacyProfile  *string
	PrivacyStats    *string
	PrivacyActivity *string
}
