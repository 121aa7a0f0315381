package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/storage"
)

// fakeStore serves questions from a fixed slice in order, which keeps the
// drawn sequence predictable.
type fakeStore struct {
	pool []entities.Question
}

func (f *fakeStore) Count(scope entities.Scope) int {
	n := 0
	for i := range f.pool {
		if scope.Matches(&f.pool[i]) {
			n++
		}
	}
	return n
}

func (f *fakeStore) Draw(scope entities.Scope, count int, _ *rand.Rand) []entities.Question {
	var out []entities.Question
	for i := range f.pool {
		if len(out) >= count {
			break
		}
		if scope.Matches(&f.pool[i]) {
			out = append(out, f.pool[i])
		}
	}
	return out
}

type fakeRecorder struct {
	mu      sync.Mutex
	tallies []*entities.Tally
	err     error
}

func (f *fakeRecorder) RecordTally(_ context.Context, tally *entities.Tally) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tallies = append(f.tallies, tally)
	return f.err
}

func (f *fakeRecorder) recorded() []*entities.Tally {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.Tally, len(f.tallies))
	copy(out, f.tallies)
	return out
}

type fakePresenter struct {
	mu        sync.Mutex
	questions []QuestionView
	answers   []AnswerView
	results   []*entities.Tally
}

func (f *fakePresenter) PresentQuestion(_ int64, view QuestionView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, view)
}

func (f *fakePresenter) PresentTick(int64, QuestionView, int) {}

func (f *fakePresenter) PresentAnswerResult(_ int64, view AnswerView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, view)
}

func (f *fakePresenter) PresentResult(_ int64, tally *entities.Tally) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, tally)
}

func (f *fakePresenter) lastQuestion() QuestionView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questions[len(f.questions)-1]
}

func (f *fakePresenter) answerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers)
}

type fakeSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func makeQuestions(prefix, country string, n int) []entities.Question {
	out := make([]entities.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entities.Question{
			ID:            fmt.Sprintf("%s-%d", prefix, i),
			Text:          fmt.Sprintf("question %s-%d", prefix, i),
			Options:       map[string]string{"a": "right", "b": "wrong"},
			CorrectAnswer: "a",
			Country:       country,
			Region:        "main",
		})
	}
	return out
}

type quizFixture struct {
	engine    *QuizService
	store     *fakeStore
	registry  *storage.SessionRegistry
	recorder  *fakeRecorder
	presenter *fakePresenter
}

func newQuizFixture(t *testing.T, pool []entities.Question, cfg Config, settings SettingsRepository) *quizFixture {
	t.Helper()

	if cfg.QuestionTime == 0 {
		// Long enough that no timer fires during synchronous test steps.
		cfg.QuestionTime = time.Hour
		cfg.TickInterval = time.Hour
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}

	reg := storage.NewSessionRegistry()
	rec := &fakeRecorder{}
	pres := &fakePresenter{}
	store := &fakeStore{pool: pool}
	engine := NewQuizService(store, reg, rec, pres, settings, cfg, zap.NewNop())

	return &quizFixture{engine: engine, store: store, registry: reg, recorder: rec, presenter: pres}
}

func TestStartDrawsRequestedCount(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 15), Config{MinQuestions: 5}, nil)

	session, err := fx.engine.Start(context.Background(), 1, entities.Scope{Country: "france"}, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, session.TotalQuestions())
	assert.Equal(t, entities.SessionAwaitingAnswer, session.State)
	assert.Same(t, session, fx.registry.Get(1))

	view := fx.presenter.lastQuestion()
	assert.Equal(t, 1, view.Number)
	assert.Equal(t, 10, view.Total)
}

func TestStartRaisesCountToMinimum(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 15), Config{MinQuestions: 5}, nil)

	session, err := fx.engine.Start(context.Background(), 1, entities.Scope{Country: "france"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, session.TotalQuestions())
}

func TestStartTopsUpFromFallbackPool(t *testing.T) {
	t.Parallel()

	pool := append(makeQuestions("fr", "france", 3), makeQuestions("it", "italy", 7)...)
	fx := newQuizFixture(t, pool, Config{MinQuestions: 5}, nil)

	session, err := fx.engine.Start(context.Background(), 1, entities.Scope{Country: "france"}, 5)
	require.NoError(t, err)
	require.Equal(t, 5, session.TotalQuestions())

	// The scoped questions come first and nothing is drawn twice.
	seen := make(map[string]struct{})
	for _, q := range session.Questions {
		_, dup := seen[q.ID]
		assert.False(t, dup, "question %s drawn twice", q.ID)
		seen[q.ID] = struct{}{}
	}
	assert.Equal(t, "france", session.Questions[0].Country)
	assert.Equal(t, "italy", session.Questions[4].Country)
}

func TestStartInsufficientQuestions(t *testing.T) {
	t.Parallel()

	pool := append(makeQuestions("fr", "france", 2), makeQuestions("it", "italy", 2)...)
	fx := newQuizFixture(t, pool, Config{MinQuestions: 10}, nil)

	session, err := fx.engine.Start(context.Background(), 1, entities.Scope{Country: "france"}, 10)
	assert.ErrorIs(t, err, ErrInsufficientQuestions)
	assert.Nil(t, session)
	assert.Nil(t, fx.registry.Get(1))
	assert.Empty(t, fx.recorder.recorded())
}

func TestStartAbortsPreviousSession(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 15), Config{MinQuestions: 5}, nil)
	ctx := context.Background()

	first, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 5)
	require.NoError(t, err)

	second, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 5)
	require.NoError(t, err)

	assert.Equal(t, entities.SessionAborted, first.State)
	assert.Same(t, second, fx.registry.Get(1))

	tallies := fx.recorder.recorded()
	require.Len(t, tallies, 1)
	assert.True(t, tallies[0].Aborted)
}

func TestStartFailureKeepsRunningSession(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 5}, nil)
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 5)
	require.NoError(t, err)

	// The pool shrinks below the minimum, as after a reload of edited files.
	fx.store.pool = fx.store.pool[:3]

	restarted, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 5)
	assert.ErrorIs(t, err, ErrInsufficientQuestions)
	assert.Nil(t, restarted)

	// The running session is untouched and no aborted tally was recorded.
	assert.Equal(t, entities.SessionAwaitingAnswer, session.State)
	assert.Same(t, session, fx.registry.Get(1))
	assert.Empty(t, fx.recorder.recorded())

	outcome, err := fx.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)
	assert.True(t, outcome.Correct)
}

func TestSubmitAnswerFullRun(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3}, nil)
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	// Right, wrong, right — answer key comparison is case-insensitive.
	answers := []string{"A", "b", "a"}
	wantCorrect := []bool{true, false, true}

	for i, key := range answers {
		outcome, err := fx.engine.SubmitAnswer(ctx, 1, i, key)
		require.NoError(t, err)
		assert.Equal(t, wantCorrect[i], outcome.Correct)
		assert.False(t, outcome.TimedOut)
	}

	assert.Equal(t, entities.SessionCompleted, session.State)
	assert.Equal(t, 2, session.CorrectCount)

	tallies := fx.recorder.recorded()
	require.Len(t, tallies, 1)
	assert.Equal(t, 3, tallies[0].TotalQuestions)
	assert.Equal(t, 2, tallies[0].CorrectCount)
	assert.False(t, tallies[0].Aborted)

	require.Len(t, fx.presenter.results, 1)

	// The run is over: further answers are rejected, but the session stays
	// registered for the explanation browser.
	_, err = fx.engine.SubmitAnswer(ctx, 1, 3, "a")
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Same(t, session, fx.registry.Get(1))
}

func TestSubmitAnswerRejectsStaleAndDuplicate(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3}, nil)
	ctx := context.Background()

	_, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	// Index that is not the current question.
	_, err = fx.engine.SubmitAnswer(ctx, 1, 2, "a")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = fx.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)

	// Re-answering a question that was already resolved.
	_, err = fx.engine.SubmitAnswer(ctx, 1, 0, "b")
	assert.ErrorIs(t, err, ErrInvalidState)

	session := fx.engine.Session(1)
	assert.Equal(t, 1, session.Index)
	assert.Len(t, session.Outcomes, 1)
}

func TestSubmitAnswerNoSession(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3}, nil)

	_, err := fx.engine.SubmitAnswer(context.Background(), 1, 0, "a")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestTimeoutAdvancesWithoutScore(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MinQuestions: 3,
		QuestionTime: 30 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
	}
	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), cfg, nil)

	_, err := fx.engine.Start(context.Background(), 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return fx.presenter.answerCount() >= 1
	}, time.Second, 5*time.Millisecond, "first question never timed out")

	// Abort serializes with the running timers and hands back the outcome
	// log; the timed-out question must have scored nothing. If the timers
	// already walked the session to completion the tally was recorded on
	// the way out instead.
	tally, err := fx.engine.Abort(context.Background(), 1)
	if err != nil {
		require.ErrorIs(t, err, ErrNoActiveSession)
		tallies := fx.recorder.recorded()
		require.NotEmpty(t, tallies)
		tally = tallies[0]
	}
	require.NotEmpty(t, tally.Outcomes)

	first := tally.Outcomes[0]
	assert.True(t, first.TimedOut)
	assert.False(t, first.Correct)
	assert.Empty(t, first.Answer)
	assert.Equal(t, 0, tally.CorrectCount)
}

func TestAbortEmitsPartialTally(t *testing.T) {
	t.Parallel()

	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3}, nil)
	ctx := context.Background()

	session, err := fx.engine.Start(ctx, 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	_, err = fx.engine.SubmitAnswer(ctx, 1, 0, "a")
	require.NoError(t, err)

	tally, err := fx.engine.Abort(ctx, 1)
	require.NoError(t, err)

	assert.True(t, tally.Aborted)
	assert.Equal(t, 1, tally.TotalQuestions)
	assert.Equal(t, 1, tally.CorrectCount)
	assert.Equal(t, entities.SessionAborted, session.State)

	require.Len(t, fx.recorder.recorded(), 1)

	// Aborting twice is an error; the archived session is untouched.
	_, err = fx.engine.Abort(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Same(t, session, fx.registry.Get(1))
}

func TestQuestionTimeHonorsSettingsOverride(t *testing.T) {
	t.Parallel()

	settings := &fakeSettings{values: map[string]string{SettingTimePerQuestion: "30"}}
	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3, QuestionTime: time.Hour, TickInterval: time.Hour}, settings)

	session, err := fx.engine.Start(context.Background(), 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, session.Deadline.Sub(session.AskedAt))
	assert.Equal(t, 30, fx.presenter.lastQuestion().Limit)
}

func TestQuestionTimeIgnoresBadOverride(t *testing.T) {
	t.Parallel()

	settings := &fakeSettings{values: map[string]string{SettingTimePerQuestion: "soon"}}
	fx := newQuizFixture(t, makeQuestions("fr", "france", 5), Config{MinQuestions: 3, QuestionTime: time.Hour, TickInterval: time.Hour}, settings)

	session, err := fx.engine.Start(context.Background(), 1, entities.ScopeAny, 3)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, session.Deadline.Sub(session.AskedAt))
}
