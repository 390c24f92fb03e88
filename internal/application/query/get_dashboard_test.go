package query

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

const testUserID = "4f2d8a6e-3b1c-4e9f-8d7a-2c5b9e1f0a3d"

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeProfileRepo struct {
	profile *profile.Profile
	err     error
}

func (f *fakeProfileRepo) GetByID(_ context.Context, _ shared.UserID) (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, shared.ErrProfileNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, _ *profile.Profile) error { return nil }
func (f *fakeProfileRepo) Update(_ context.Context, _ *profile.Profile) error { return nil }

func (f *fakeProfileRepo) IncrementLessonsCompleted(_ context.Context, _ shared.UserID) (int, error) {
	return 0, nil
}

func (f *fakeProfileRepo) IncrementTestsCompleted(_ context.Context, _ shared.UserID) (int, error) {
	return 0, nil
}

func (f *fakeProfileRepo) GetPasswordHash(_ context.Context, _ shared.UserID) (string, error) {
	return "", nil
}

func (f *fakeProfileRepo) UpdatePasswordHash(_ context.Context, _ shared.UserID, _ string) error {
	return nil
}

type fakeProgressRepo struct {
	lessonEvents []progress.LessonProgressEvent
	testResults  []progress.TestResultEvent
	listErr      error
}

func (f *fakeProgressRepo) ListLessonEvents(_ context.Context, _ shared.UserID) ([]progress.LessonProgressEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lessonEvents, nil
}

func (f *fakeProgressRepo) ListTestResults(_ context.Context, _ shared.UserID) ([]progress.TestResultEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.testResults, nil
}

func (f *fakeProgressRepo) AppendLessonEvent(_ context.Context, e *progress.LessonProgressEvent) error {
	f.lessonEvents = append(f.lessonEvents, *e)
	return nil
}

func (f *fakeProgressRepo) AppendTestResult(_ context.Context, e *progress.TestResultEvent) error {
	f.testResults = append(f.testResults, *e)
	return nil
}

func (f *fakeProgressRepo) HasCompletedLesson(_ context.Context, _ shared.UserID, lessonID int64) (bool, error) {
	for _, e := range f.lessonEvents {
		if e.LessonID == lessonID && e.Completed {
			return true, nil
		}
	}
	return false, nil
}

type fakeMirror struct {
	profiles map[shared.UserID]*profile.Profile
	unlocked map[shared.UserID]int
	streaks  map[shared.UserID]int
	readErr  error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		profiles: make(map[shared.UserID]*profile.Profile),
		unlocked: make(map[shared.UserID]int),
		streaks:  make(map[shared.UserID]int),
	}
}

func (f *fakeMirror) GetProfile(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeMirror) SetProfile(_ context.Context, p *profile.Profile) error {
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeMirror) GetUnlockedCount(_ context.Context, userID shared.UserID) (int, bool, error) {
	if f.readErr != nil {
		return 0, false, f.readErr
	}
	count, ok := f.unlocked[userID]
	return count, ok, nil
}

func (f *fakeMirror) SetUnlockedCount(_ context.Context, userID shared.UserID, count int) error {
	f.unlocked[userID] = count
	return nil
}

func (f *fakeMirror) GetStreak(_ context.Context, userID shared.UserID) (int, bool, error) {
	days, ok := f.streaks[userID]
	return days, ok, nil
}

func (f *fakeMirror) SetStreak(_ context.Context, userID shared.UserID, days int) error {
	f.streaks[userID] = days
	return nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(_ context.Context, event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	types := make([]string, len(f.events))
	for i, e := range f.events {
		types[i] = e.EventType()
	}
	return types
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

type dashboardFixture struct {
	handler   *GetDashboardHandler
	profiles  *fakeProfileRepo
	events    *fakeProgressRepo
	mirror    *fakeMirror
	publisher *fakePublisher
}

func newDashboardFixture(now time.Time) *dashboardFixture {
	f := &dashboardFixture{
		profiles:  &fakeProfileRepo{},
		events:    &fakeProgressRepo{},
		mirror:    newFakeMirror(),
		publisher: &fakePublisher{},
	}
	aggregator := progress.NewAggregator(time.UTC).WithNow(func() time.Time { return now })
	f.handler = NewGetDashboardHandler(f.profiles, f.events, f.mirror, aggregator, f.publisher, testLogger())
	return f
}

func storedProfile() *profile.Profile {
	p := profile.New(shared.UserID(testUserID), "margarita", "margarita@example.com")
	p.LessonsCompleted = 2
	p.TestsCompleted = 1
	return p
}

func TestGetDashboard_HappyPath(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newDashboardFixture(now)
	f.profiles.profile = storedProfile()
	f.events.lessonEvents = []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true, CompletedAt: now},
		{ID: 2, UserID: shared.UserID(testUserID), LessonID: 11, Completed: true, CompletedAt: now.AddDate(0, 0, -1)},
	}
	f.events.testResults = []progress.TestResultEvent{
		{ID: 1, UserID: shared.UserID(testUserID), TestID: 10, Score: 3, TotalQuestions: 3, SubmittedAt: now},
	}

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Equal(t, "margarita", result.Profile.Username)
	assert.False(t, result.Profile.Fallback)
	assert.Equal(t, 2, result.Stats.TotalCompletedLessons)
	assert.Equal(t, 1, result.Stats.TotalCompletedTests)
	assert.Equal(t, 2, result.Stats.Streak)
	assert.True(t, result.Stats.HasPerfectTest)
	require.Len(t, result.Achievements, 5)

	// Registered, first lesson, and first test are satisfied.
	assert.True(t, result.Achievements[0].Unlocked)
	assert.True(t, result.Achievements[1].Unlocked)
	assert.True(t, result.Achievements[2].Unlocked)
	assert.False(t, result.Achievements[3].Unlocked)
	assert.False(t, result.Achievements[4].Unlocked)

	// Successful reads refresh the mirrored snapshot.
	_, ok := f.mirror.profiles[shared.UserID(testUserID)]
	assert.True(t, ok)
}

func TestGetDashboard_InvalidUserID(t *testing.T) {
	f := newDashboardFixture(time.Now())
	_, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: "not-a-uuid"})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestGetDashboard_ProfileFallsBackToMirror(t *testing.T) {
	f := newDashboardFixture(time.Now())
	f.profiles.err = errors.New("record store unreachable")

	mirrored := storedProfile()
	require.NoError(t, f.mirror.SetProfile(context.Background(), mirrored))

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Equal(t, "margarita", result.Profile.Username)
	assert.False(t, result.Profile.Fallback)
	// Progress events are intact, so the mirrored counters carry the stats.
	assert.Equal(t, 2, result.Stats.TotalCompletedLessons)
}

func TestGetDashboard_SynthesizedProfileWhenMirrorEmpty(t *testing.T) {
	f := newDashboardFixture(time.Now())
	f.profiles.err = errors.New("record store unreachable")

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{
		UserID: testUserID,
		Email:  "rita@example.com",
	})
	require.NoError(t, err)

	assert.True(t, result.Profile.Fallback)
	assert.Equal(t, "rita", result.Profile.Username)
	assert.Equal(t, 0, result.Stats.TotalCompletedLessons)
}

func TestGetDashboard_EventFetchFailureUsesCounterFallback(t *testing.T) {
	f := newDashboardFixture(time.Now())
	f.profiles.profile = storedProfile()
	f.events.listErr = errors.New("query timeout")

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	// The lesson total falls back to the profile counter; the test total
	// never does.
	assert.Equal(t, 2, result.Stats.TotalCompletedLessons)
	assert.Equal(t, 0, result.Stats.TotalCompletedTests)
	assert.Equal(t, 0, result.Stats.Streak)
}

func TestGetDashboard_FirstReadInitializesWithoutCelebration(t *testing.T) {
	f := newDashboardFixture(time.Now())
	f.profiles.profile = storedProfile()

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Nil(t, result.Celebration)
	// The current count was persisted so the next increase can fire.
	assert.Equal(t, 2, f.mirror.unlocked[shared.UserID(testUserID)])
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventTypeAchievementUnlocked)
}

func TestGetDashboard_CelebrationFiresOncePerUnlock(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newDashboardFixture(now)
	f.profiles.profile = storedProfile()
	ctx := context.Background()

	// Seed the previously observed count: registered only.
	require.NoError(t, f.mirror.SetUnlockedCount(ctx, shared.UserID(testUserID), 1))

	f.events.lessonEvents = []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true, CompletedAt: now},
	}

	result, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)
	require.NotNil(t, result.Celebration)
	assert.Equal(t, 1, result.Celebration.Index)
	assert.Equal(t, "Первый урок", result.Celebration.Title)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventTypeAchievementUnlocked)

	// A reload with the same progress stays quiet.
	result, err = f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)
	assert.Nil(t, result.Celebration)
	assert.Equal(t, 2, f.mirror.unlocked[shared.UserID(testUserID)])
}

func TestGetDashboard_CelebrationGateSuppressesWithoutReplay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newDashboardFixture(now)
	f.profiles.profile = storedProfile()
	f.handler.WithCelebrationGate(func(string) bool { return false })
	ctx := context.Background()

	require.NoError(t, f.mirror.SetUnlockedCount(ctx, shared.UserID(testUserID), 1))

	f.events.lessonEvents = []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true, CompletedAt: now},
	}

	result, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	// The achievement still reads as unlocked and the count still advances;
	// only the one-shot celebration is withheld.
	assert.Nil(t, result.Celebration)
	assert.True(t, result.Achievements[1].Unlocked)
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventTypeAchievementUnlocked)
	assert.Equal(t, 2, f.mirror.unlocked[shared.UserID(testUserID)])

	// Re-enabling the gate afterwards does not replay the swallowed unlock.
	f.handler.WithCelebrationGate(nil)
	result, err = f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)
	assert.Nil(t, result.Celebration)
}

func TestGetDashboard_CountRegressionDoesNotRewind(t *testing.T) {
	f := newDashboardFixture(time.Now())
	f.profiles.profile = storedProfile()
	ctx := context.Background()

	require.NoError(t, f.mirror.SetUnlockedCount(ctx, shared.UserID(testUserID), 4))

	result, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Nil(t, result.Celebration)
	assert.Equal(t, 4, f.mirror.unlocked[shared.UserID(testUserID)])
}

func TestGetDashboard_MirrorReadErrorSuppressesCelebration(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newDashboardFixture(now)
	f.profiles.profile = storedProfile()
	f.mirror.readErr = errors.New("mirror unavailable")
	f.events.lessonEvents = []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true, CompletedAt: now},
	}

	result, err := f.handler.Handle(context.Background(), GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Nil(t, result.Celebration)
	assert.NotContains(t, f.publisher.eventTypes(), shared.EventTypeAchievementUnlocked)
	// Unlock states are still reported even though no celebration fires.
	assert.True(t, result.Achievements[1].Unlocked)
}

func TestGetDashboard_StreakChangePublishesEvent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newDashboardFixture(now)
	f.profiles.profile = storedProfile()
	f.events.lessonEvents = []progress.LessonProgressEvent{
		{ID: 1, UserID: shared.UserID(testUserID), LessonID: 10, Completed: true, CompletedAt: now},
	}
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)
	assert.Contains(t, f.publisher.eventTypes(), shared.EventTypeStreakUpdated)
	assert.Equal(t, 1, f.mirror.streaks[shared.UserID(testUserID)])

	// Unchanged streak publishes nothing on reload.
	before := len(f.publisher.events)
	_, err = f.handler.Handle(ctx, GetDashboardQuery{UserID: testUserID})
	require.NoError(t, err)
	streakEvents := 0
	for _, et := range f.publisher.eventTypes()[before:] {
		if et == shared.EventTypeStreakUpdated {
			streakEvents++
		}
	}
	assert.Zero(t, streakEvents)
}
