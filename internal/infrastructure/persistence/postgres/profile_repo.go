package postgres

import (
	"context"
	"fmt"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
)

// ProfileRepository implements profile.Repository backed by the profiles table.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `
	id, username, email, job, city, country, status, avatar_url,
	privacy_profile, privacy_stats, privacy_activity,
	lessons_completed, tests_completed, created_at, updated_at`

// GetByID fetches a profile by user ID.
func (r *ProfileRepository) GetByID(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)

	row := r.conn.QueryRow(ctx, query, userID.String())
	p, err := scanProfile(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("postgres: failed to fetch profile: %w", err)
	}
	return p, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			id, username, email, job, city, country, status, avatar_url,
			privacy_profile, privacy_stats, privacy_activity,
			lessons_completed, tests_completed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.conn.Exec(ctx, query,
		p.UserID.String(), p.Username, p.Email,
		p.Job, p.City, p.Country, p.Status, p.AvatarURL,
		p.PrivacyProfile.String(), p.PrivacyStats.String(), p.PrivacyActivity.String(),
		p.LessonsCompleted, p.TestsCompleted, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrProfileAlreadyExists
		}
		return fmt.Errorf("postgres: failed to create profile: %w", err)
	}
	return nil
}

// Update persists the editable fields and the updated_at timestamp.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	query := `
		UPDATE profiles SET
			username = $2, job = $3, city = $4, country = $5,
			status = $6, avatar_url = $7,
			privacy_profile = $8, privacy_stats = $9, privacy_activity = $10,
			updated_at = $11
		WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query,
		p.UserID.String(), p.Username,
		p.Job, p.City, p.Country, p.Status, p.AvatarURL,
		p.PrivacyProfile.String(), p.PrivacyStats.String(), p.PrivacyActivity.String(),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// IncrementLessonsCompleted bumps the lesson counter and returns the new value.
func (r *ProfileRepository) IncrementLessonsCompleted(ctx context.Context, userID shared.UserID) (int, error) {
	return r.increment(ctx, userID, "lessons_completed")
}

// IncrementTestsCompleted bumps the test counter and returns the new value.
func (r *ProfileRepository) IncrementTestsCompleted(ctx context.Context, userID shared.UserID) (int, error) {
	return r.increment(ctx, userID, "tests_completed")
}

func (r *ProfileRepository) increment(ctx context.Context, userID shared.UserID, column string) (int, error) {
	// column is one of two fixed identifiers, never user input.
	query := fmt.Sprintf(`
		UPDATE profiles SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, column, column, column)

	var value int
	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrProfileNotFound
		}
		return 0, fmt.Errorf("postgres: failed to increment %s: %w", column, err)
	}
	return value, nil
}

// GetPasswordHash returns the stored bcrypt hash for the user.
func (r *ProfileRepository) GetPasswordHash(ctx context.Context, userID shared.UserID) (string, error) {
	var hash string
	err := r.conn.QueryRow(ctx, `SELECT password_hash FROM profiles WHERE id = $1`, userID.String()).Scan(&hash)
	if err != nil {
		if IsNoRows(err) {
			return "", shared.ErrProfileNotFound
		}
		return "", fmt.Errorf("postgres: failed to fetch password hash: %w", err)
	}
	return hash, nil
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *ProfileRepository) UpdatePasswordHash(ctx context.Context, userID shared.UserID, hash string) error {
	tag, err := r.conn.Exec(ctx,
		`UPDATE profiles SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID.String(), hash,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*profile.Profile, error) {
	var (
		p               profile.Profile
		id              string
		privacyProfile  string
		privacyStats    string
		privacyActivity string
	)

	err := row.Scan(
		&id, &p.Username, &p.Email,
		&p.Job, &p.City, &p.Country, &p.Status, &p.AvatarURL,
		&privacyProfile, &privacyStats, &privacyActivity,
		&p.LessonsCompleted, &p.TestsCompleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UserID = shared.UserID(id)
	p.PrivacyProfile = shared.Visibility(privacyProfile)
	p.PrivacyStats = shared.Visibility(privacyStats)
	p.PrivacyActivity = shared.Visibility(privacyActivity)
	return &p, nil
}
