// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"sync"
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/achievement"
	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// The dashboard read path: fetch the profile and both progress histories,
// derive the aggregates, run the achievement evaluator against the persisted
// unlocked count, and report at most one new celebration.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery contains parameters for the dashboard read.
type GetDashboardQuery struct {
	// UserID is the authenticated user's ID.
	UserID string

	// Email from the auth token, used to synthesize a fallback profile when
	// the record store has no row yet.
	Email string
}

// Validate checks query parameters.
func (q *GetDashboardQuery) Validate() error {
	_, err := shared.NewUserID(q.UserID)
	return err
}

// ProfileDTO is the профиль section of the dashboard.
type ProfileDTO struct {
	UserID           string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Job              string `json:"job,omitempty"`
	City             string `json:"city,omitempty"`
	Country          string `json:"country,omitempty"`
	Status           string `json:"status,omitempty"`
	AvatarURL        string `json:"avatar_url,omitempty"`
	LessonsCompleted int    `json:"lessons_completed"`
	TestsCompleted   int    `json:"tests_completed"`

	// Fallback marks a synthesized profile (record store unreachable and no
	// mirror entry).
	Fallback bool `json:"fallback,omitempty"`
}

// StatsDTO carries the derived aggregate values.
type StatsDTO struct {
	TotalCompletedLessons int  `json:"total_completed_lessons"`
	TotalCompletedTests   int  `json:"total_completed_tests"`
	Streak                int  `json:"streak"`
	HasPerfectTest        bool `json:"has_perfect_test"`
}

// AchievementDTO is one catalog entry with its unlock state.
type AchievementDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// CelebrationDTO identifies the single achievement whose one-shot celebration
// should play on this render.
type CelebrationDTO struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// GetDashboardResult is the full dashboard payload.
type GetDashboardResult struct {
	Profile      ProfileDTO       `json:"profile"`
	Stats        StatsDTO         `json:"stats"`
	Achievements []AchievementDTO `json:"achievements"`
	Celebration  *CelebrationDTO  `json:"celebration,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// GetDashboardHandler handles dashboard reads.
type GetDashboardHandler struct {
	profileRepo  profile.Repository
	progressRepo progress.Repository
	mirror       profile.Mirror
	aggregator   *progress.Aggregator
	publisher    shared.EventPublisher
	log          *logger.Logger

	// locks serializes the read-evaluate-persist cycle per user so two
	// concurrent dashboard loads cannot double-fire a celebration.
	locks userLocks

	// celebrations gates the one-shot unlock celebration per user. Nil means
	// always enabled.
	celebrations CelebrationGate
}

// CelebrationGate reports whether unlock celebrations are enabled for the
// user, typically backed by a feature flag with percentage rollout.
type CelebrationGate func(userID string) bool

// NewGetDashboardHandler creates a new handler.
func NewGetDashboardHandler(
	profileRepo profile.Repository,
	progressRepo progress.Repository,
	mirror profile.Mirror,
	aggregator *progress.Aggregator,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		profileRepo:  profileRepo,
		progressRepo: progressRepo,
		mirror:       mirror,
		aggregator:   aggregator,
		publisher:    publisher,
		log:          log.With(logger.Component("get_dashboard")),
	}
}

// WithCelebrationGate installs the celebration feature gate.
func (h *GetDashboardHandler) WithCelebrationGate(gate CelebrationGate) *GetDashboardHandler {
	h.celebrations = gate
	return h
}

// Handle executes the dashboard read.
//
// The three remote fetches run concurrently and each input defaults safely:
// a failed profile fetch falls back to the mirrored snapshot (then to a
// synthesized profile), failed event fetches default to empty collections.
// The aggregator's own fallback rules then keep the numbers from flashing
// back to zero.
func (h *GetDashboardHandler) Handle(ctx context.Context, query GetDashboardQuery) (*GetDashboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	userID := shared.UserID(query.UserID)

	var (
		wg           sync.WaitGroup
		prof         *profile.Profile
		profErr      error
		lessonEvents []progress.LessonProgressEvent
		testResults  []progress.TestResultEvent
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		prof, profErr = h.profileRepo.GetByID(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		events, err := h.progressRepo.ListLessonEvents(ctx, userID)
		if err != nil {
			h.log.Warn("lesson progress fetch failed", logger.UserID(query.UserID), logger.Err(err))
			return
		}
		lessonEvents = events
	}()
	go func() {
		defer wg.Done()
		results, err := h.progressRepo.ListTestResults(ctx, userID)
		if err != nil {
			h.log.Warn("test results fetch failed", logger.UserID(query.UserID), logger.Err(err))
			return
		}
		testResults = results
	}()
	wg.Wait()

	fallback := false
	switch {
	case profErr == nil:
		// Refresh the mirror on every successful remote read.
		if err := h.mirror.SetProfile(ctx, prof); err != nil {
			h.log.Warn("mirror write failed", logger.UserID(query.UserID), logger.Err(err))
		}
	default:
		h.log.Warn("profile fetch failed, trying mirror", logger.UserID(query.UserID), logger.Err(profErr))
		mirrored, mErr := h.mirror.GetProfile(ctx, userID)
		if mErr == nil {
			prof = mirrored
		} else {
			prof = profile.Fallback(userID, query.Email)
			fallback = true
		}
	}

	agg := h.aggregator.Compute(prof, lessonEvents, testResults)

	evaluation := h.evaluate(ctx, userID, agg)
	h.observeStreak(ctx, userID, agg.Streak)

	result := &GetDashboardResult{
		Profile:      buildProfileDTO(prof, fallback),
		Stats:        StatsDTO(agg),
		Achievements: buildAchievementDTOs(evaluation),
		GeneratedAt:  time.Now().UTC(),
	}
	if evaluation.HasNewUnlock() {
		result.Celebration = &CelebrationDTO{
			Index: evaluation.NewlyUnlockedIndex,
			Title: achievement.Catalog[evaluation.NewlyUnlockedIndex].Title,
		}
	}
	return result, nil
}

// evaluate runs the achievement evaluator under the per-user lock and
// persists the new unlocked count when it grew.
func (h *GetDashboardHandler) evaluate(ctx context.Context, userID shared.UserID, agg progress.Aggregates) achievement.Evaluation {
	unlock := h.locks.lock(userID)
	defer unlock()

	prev, found, err := h.mirror.GetUnlockedCount(ctx, userID)
	if err != nil {
		h.log.Warn("unlocked count read failed", logger.UserID(userID.String()), logger.Err(err))
		// An unreadable count is treated as all-seen so a transient mirror
		// outage cannot replay old celebrations.
		return achievement.Evaluate(agg, true, achievement.Size(), true)
	}

	evaluation := achievement.Evaluate(agg, true, prev, found)

	if evaluation.PersistCount != prev || !found {
		if err := h.mirror.SetUnlockedCount(ctx, userID, evaluation.PersistCount); err != nil {
			h.log.Warn("unlocked count write failed", logger.UserID(userID.String()), logger.Err(err))
		}
	}

	// A gated-off celebration is swallowed after the count was persisted, so
	// re-enabling the flag later does not replay it.
	if evaluation.HasNewUnlock() && h.celebrations != nil && !h.celebrations(userID.String()) {
		h.log.Debug("celebration suppressed by feature gate", logger.UserID(userID.String()))
		evaluation.NewlyUnlockedIndex = -1
	}

	if evaluation.HasNewUnlock() && h.publisher != nil {
		event := shared.NewAchievementUnlockedEvent(
			userID.String(),
			evaluation.NewlyUnlockedIndex,
			achievement.Catalog[evaluation.NewlyUnlockedIndex].Title,
			evaluation.UnlockedCount,
		)
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.log.Warn("achievement event publish failed", logger.UserID(userID.String()), logger.Err(err))
		}
	}
	return evaluation
}

// observeStreak publishes a streak.updated event when the recomputed value
// differs from the last observed one.
func (h *GetDashboardHandler) observeStreak(ctx context.Context, userID shared.UserID, streak int) {
	last, found, err := h.mirror.GetStreak(ctx, userID)
	if err != nil {
		return
	}
	if found && last == streak {
		return
	}
	if err := h.mirror.SetStreak(ctx, userID, streak); err != nil {
		return
	}
	if h.publisher != nil {
		_ = h.publisher.Publish(ctx, shared.NewStreakUpdatedEvent(userID.String(), streak))
	}
}

func buildProfileDTO(p *profile.Profile, fallback bool) ProfileDTO {
	return ProfileDTO{
		UserID:           p.UserID.String(),
		Username:         p.Username,
		Email:            p.Email,
		Job:              p.Job,
		City:             p.City,
		Country:          p.Country,
		Status:           p.Status,
		AvatarURL:        p.AvatarURL,
		LessonsCompleted: p.LessonsCompleted,
		TestsCompleted:   p.TestsCompleted,
		Fallback:         fallback,
	}
}

func buildAchievementDTOs(ev achievement.Evaluation) []AchievementDTO {
	dtos := make([]AchievementDTO, len(achievement.Catalog))
	for i, def := range achievement.Catalog {
		dtos[i] = AchievementDTO{
			Title:       def.Title,
			Description: def.Description,
			Unlocked:    i < len(ev.Unlocked) && ev.Unlocked[i],
		}
	}
	return dtos
}

// ══════════════════════════════════════════════════════════════════════════════
// PER-USER LOCKS
// ══════════════════════════════════════════════════════════════════════════════

// userLocks provides a mutex per user ID. Entries are created lazily and
// kept for the process lifetime; the user population is small enough that
// eviction is not worth the complexity.
type userLocks struct {
	mu    sync.Mutex
	locks map[shared.UserID]*sync.Mutex
}

func (l *userLocks) lock(userID shared.UserID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[shared.UserID]*sync.Mutex)
	}
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
