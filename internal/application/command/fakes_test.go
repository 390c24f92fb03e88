package command

import (
	"context"
	"io"
	"sync"

	"github.com/margo-hub/margo-learning-hub/internal/domain/content"
	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

const testUserID = "7a1c4b2d-9e8f-4a6b-b3c5-0d2e4f6a8c1b"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[shared.UserID]*profile.Profile
	hashes   map[shared.UserID]string

	createErr error
	getErr    error

	// missFirstGet makes the next GetByID report not-found regardless of
	// contents, simulating a row appearing between the miss and the insert.
	missFirstGet bool
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[shared.UserID]*profile.Profile),
		hashes:   make(map[shared.UserID]string),
	}
}

func (f *fakeProfileRepo) GetByID(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.missFirstGet {
		f.missFirstGet = false
		return nil, shared.ErrProfileNotFound
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.profiles[p.UserID]; ok {
		return shared.ErrProfileAlreadyExists
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; !ok {
		return shared.ErrProfileNotFound
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeProfileRepo) IncrementLessonsCompleted(_ context.Context, userID shared.UserID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return 0, shared.ErrProfileNotFound
	}
	p.LessonsCompleted++
	return p.LessonsCompleted, nil
}

func (f *fakeProfileRepo) IncrementTestsCompleted(_ context.Context, userID shared.UserID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return 0, shared.ErrProfileNotFound
	}
	p.TestsCompleted++
	return p.TestsCompleted, nil
}

func (f *fakeProfileRepo) GetPasswordHash(_ context.Context, userID shared.UserID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.hashes[userID]
	if !ok {
		return "", shared.ErrProfileNotFound
	}
	return hash, nil
}

func (f *fakeProfileRepo) UpdatePasswordHash(_ context.Context, userID shared.UserID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes[userID] = hash
	return nil
}

func (f *fakeProfileRepo) get(userID shared.UserID) *profile.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[userID]
}

type fakeProgressRepo struct {
	mu           sync.Mutex
	lessonEvents []progress.LessonProgressEvent
	testResults  []progress.TestResultEvent
	appendErr    error
}

func (f *fakeProgressRepo) ListLessonEvents(_ context.Context, _ shared.UserID) ([]progress.LessonProgressEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]progress.LessonProgressEvent(nil), f.lessonEvents...), nil
}

func (f *fakeProgressRepo) ListTestResults(_ context.Context, _ shared.UserID) ([]progress.TestResultEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]progress.TestResultEvent(nil), f.testResults...), nil
}

func (f *fakeProgressRepo) AppendLessonEvent(_ context.Context, e *progress.LessonProgressEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lessonEvents = append(f.lessonEvents, *e)
	return nil
}

func (f *fakeProgressRepo) AppendTestResult(_ context.Context, e *progress.TestResultEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.testResults = append(f.testResults, *e)
	return nil
}

func (f *fakeProgressRepo) HasCompletedLesson(_ context.Context, userID shared.UserID, lessonID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.lessonEvents {
		if e.UserID == userID && e.LessonID == lessonID && e.Completed {
			return true, nil
		}
	}
	return false, nil
}

type fakeContentRepo struct {
	lessons map[int64]*content.LessonWithTest
}

func (f *fakeContentRepo) ListLessons(_ context.Context) ([]content.Lesson, error) {
	lessons := make([]content.Lesson, 0, len(f.lessons))
	for _, lt := range f.lessons {
		lessons = append(lessons, lt.Lesson)
	}
	return lessons, nil
}

func (f *fakeContentRepo) GetLesson(_ context.Context, lessonID int64) (*content.Lesson, error) {
	lt, ok := f.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return &lt.Lesson, nil
}

func (f *fakeContentRepo) GetLessonWithTest(_ context.Context, lessonID int64) (*content.LessonWithTest, error) {
	lt, ok := f.lessons[lessonID]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return lt, nil
}

type fakeMirror struct {
	mu       sync.Mutex
	profiles map[shared.UserID]*profile.Profile
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{profiles: make(map[shared.UserID]*profile.Profile)}
}

func (f *fakeMirror) GetProfile(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeMirror) SetProfile(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeMirror) GetUnlockedCount(_ context.Context, _ shared.UserID) (int, bool, error) {
	return 0, false, nil
}

func (f *fakeMirror) SetUnlockedCount(_ context.Context, _ shared.UserID, _ int) error { return nil }

func (f *fakeMirror) GetStreak(_ context.Context, _ shared.UserID) (int, bool, error) {
	return 0, false, nil
}

func (f *fakeMirror) SetStreak(_ context.Context, _ shared.UserID, _ int) error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (f *fakePublisher) Publish(_ context.Context, event shared.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.events))
	for i, e := range f.events {
		types[i] = e.EventType()
	}
	return types
}

func animalQuiz() *content.LessonWithTest {
	return &content.LessonWithTest{
		Lesson: content.Lesson{ID: 10, Title: "Животные", Position: 1},
		Test: &content.Test{
			ID:       10,
			LessonID: 10,
			Title:    "Животные: тест",
			Questions: []quiz.Question{
				{ID: 100, Text: "Перевод слова cat", Options: []quiz.Option{
					{Text: "кошка", IsCorrect: true},
					{Text: "собака"},
				}},
				{ID: 101, Text: "Перевод слова dog", Options: []quiz.Option{
					{Text: "кошка"},
					{Text: "собака", IsCorrect: true},
				}},
			},
		},
	}
}
