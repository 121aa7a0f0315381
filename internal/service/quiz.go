package service

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/storage"
)

var (
	// ErrInsufficientQuestions is returned when the scope plus the fallback
	// pool cannot cover the configured minimum; no session is created.
	ErrInsufficientQuestions = errors.New("not enough questions for a session")
	// ErrInvalidState is returned when an event arrives outside its legal
	// state, e.g. a duplicate or stale answer. The session is not mutated.
	ErrInvalidState = errors.New("event not valid in current session state")
	// ErrNoActiveSession is returned when the user has no running quiz.
	ErrNoActiveSession = errors.New("no active quiz session")
)

// SettingTimePerQuestion is the settings key overriding the configured
// per-question time limit at runtime.
const SettingTimePerQuestion = "time_per_question"

// Config holds quiz engine settings.
type Config struct {
	QuestionTime time.Duration // per-question time limit
	MinQuestions int           // minimum questions required to start
	TickInterval time.Duration // countdown resolution, defaults to one second
	Rand         *rand.Rand    // randomness source, defaults to a time-seeded one
}

// QuizService is the per-user quiz state machine. It draws questions, arms
// the countdown for each one, evaluates answers and timeouts, and emits the
// final tally to the stats recorder.
//
// Events for the same user are serialized on a per-user lock and processed
// to completion, so the race between a timeout and a late answer for the
// same question is resolved by whichever event acquires the lock first; the
// loser is rejected with ErrInvalidState.
type QuizService struct {
	store     QuestionStore
	registry  *storage.SessionRegistry
	recorder  StatsRecorder
	presenter QuizPresenter
	settings  SettingsRepository
	cfg       Config
	logger    *zap.Logger

	mu     sync.Mutex
	locks  map[int64]*sync.Mutex
	timers map[int64]*Timer
}

// NewQuizService creates a quiz engine. settings may be nil, in which case
// the configured time limit is always used.
func NewQuizService(
	store QuestionStore,
	registry *storage.SessionRegistry,
	recorder StatsRecorder,
	presenter QuizPresenter,
	settings SettingsRepository,
	cfg Config,
	logger *zap.Logger,
) *QuizService {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &QuizService{
		store:     store,
		registry:  registry,
		recorder:  recorder,
		presenter: presenter,
		settings:  settings,
		cfg:       cfg,
		logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
		timers:    make(map[int64]*Timer),
	}
}

// Start begins a new quiz session for the user. It fails with
// ErrInsufficientQuestions when the scope plus the "any" fallback pool
// cannot reach the configured minimum; a failed start leaves any running
// session untouched. Only once the draw succeeded is a previous session
// aborted and replaced, so at most one session per user exists.
func (s *QuizService) Start(ctx context.Context, userID int64, scope entities.Scope, count int) (*entities.Session, error) {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	questions, err := s.drawQuestions(scope, count)
	if err != nil {
		return nil, err
	}

	if prev := s.registry.Get(userID); prev != nil && prev.IsActive() {
		s.abortLocked(ctx, prev)
	}

	session := entities.NewSession(userID, scope, questions)
	s.registry.Put(userID, session)

	s.logger.Info("quiz session started",
		zap.Int64("user_id", userID),
		zap.String("scope", scope.String()),
		zap.Int("questions", len(questions)),
	)

	s.askCurrent(ctx, session)

	return session, nil
}

// SubmitAnswer applies the user's answer to the question at questionIndex.
// It is valid only while that exact question is awaiting an answer; stale
// and duplicate submissions are rejected with ErrInvalidState and leave the
// session untouched.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID int64, questionIndex int, optionKey string) (entities.Outcome, error) {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	session := s.registry.Get(userID)
	if session == nil || !session.IsActive() {
		return entities.Outcome{}, ErrNoActiveSession
	}
	if session.State != entities.SessionAwaitingAnswer || session.Index != questionIndex {
		return entities.Outcome{}, ErrInvalidState
	}

	s.cancelTimer(userID)
	session.State = entities.SessionEvaluating

	q := session.CurrentQuestion()
	key := strings.ToLower(strings.TrimSpace(optionKey))
	correct := q.IsCorrect(key)
	session.RecordOutcome(key, correct, false)
	outcome := session.Outcomes[len(session.Outcomes)-1]

	s.presenter.PresentAnswerResult(userID, AnswerView{
		Question: *q,
		Answer:   key,
		Correct:  correct,
	})

	s.advance(ctx, session)

	return outcome, nil
}

// Abort stops the user's running session, cancelling any armed timer before
// returning so no stray expiry can fire afterwards. The partial tally is
// still emitted to the recorder, tagged as aborted.
func (s *QuizService) Abort(ctx context.Context, userID int64) (*entities.Tally, error) {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	session := s.registry.Get(userID)
	if session == nil || !session.IsActive() {
		return nil, ErrNoActiveSession
	}

	return s.abortLocked(ctx, session), nil
}

// Session returns the user's current session, finished or not, or nil.
func (s *QuizService) Session(userID int64) *entities.Session {
	return s.registry.Get(userID)
}

// handleTimeout is fired by the timer when the question at questionIndex
// expires. A timeout is an automatic incorrect answer. If an answer won the
// race and already advanced the session, the event is silently dropped.
func (s *QuizService) handleTimeout(userID int64, questionIndex int) {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	session := s.registry.Get(userID)
	if session == nil || session.State != entities.SessionAwaitingAnswer || session.Index != questionIndex {
		return
	}

	s.clearTimer(userID)
	session.State = entities.SessionEvaluating

	q := session.CurrentQuestion()
	session.RecordOutcome("", false, true)

	s.presenter.PresentAnswerResult(userID, AnswerView{
		Question: *q,
		TimedOut: true,
	})

	s.advance(context.Background(), session)
}

// abortLocked finalizes an abort with the user's lock already held.
func (s *QuizService) abortLocked(ctx context.Context, session *entities.Session) *entities.Tally {
	s.cancelTimer(session.UserID)
	session.State = entities.SessionAborted

	tally := entities.NewTally(session)
	s.emitTally(ctx, tally)

	s.logger.Info("quiz session aborted",
		zap.Int64("user_id", session.UserID),
		zap.Int("answered", tally.TotalQuestions),
		zap.Int("correct", tally.CorrectCount),
	)

	return tally
}

// advance moves to the next question or completes the session.
func (s *QuizService) advance(ctx context.Context, session *entities.Session) {
	session.Advance()

	if !session.IsFinished() {
		s.askCurrent(ctx, session)
		return
	}

	session.State = entities.SessionCompleted
	tally := entities.NewTally(session)
	s.emitTally(ctx, tally)
	s.presenter.PresentResult(session.UserID, tally)

	s.logger.Info("quiz session completed",
		zap.Int64("user_id", session.UserID),
		zap.Int("total", tally.TotalQuestions),
		zap.Int("correct", tally.CorrectCount),
	)
}

// askCurrent presents the current question and arms its countdown.
func (s *QuizService) askCurrent(ctx context.Context, session *entities.Session) {
	q := session.CurrentQuestion()
	limit := s.questionTime(ctx)

	now := time.Now()
	session.State = entities.SessionAwaitingAnswer
	session.AskedAt = now
	session.Deadline = now.Add(limit)

	view := QuestionView{
		Question: *q,
		Number:   session.Index + 1,
		Total:    session.TotalQuestions(),
		Limit:    int(limit / time.Second),
	}

	s.presenter.PresentQuestion(session.UserID, view)

	userID := session.UserID
	index := session.Index
	timer := ArmTimer(limit, s.cfg.TickInterval,
		func(remaining time.Duration) {
			s.presenter.PresentTick(userID, view, int((remaining+s.cfg.TickInterval-1)/time.Second))
		},
		func() {
			s.handleTimeout(userID, index)
		},
	)
	s.setTimer(userID, timer)
}

// drawQuestions draws up to count questions from the scope. When the scoped
// pool yields fewer than the minimum, the draw is topped up to the minimum
// from the "any" pool; if even that is short, no session is possible.
func (s *QuizService) drawQuestions(scope entities.Scope, count int) ([]entities.Question, error) {
	if count < s.cfg.MinQuestions {
		count = s.cfg.MinQuestions
	}

	questions := s.store.Draw(scope, count, s.cfg.Rand)

	if len(questions) < s.cfg.MinQuestions && !scope.IsAny() {
		drawn := make(map[string]struct{}, len(questions))
		for i := range questions {
			drawn[questions[i].ID] = struct{}{}
		}

		fallback := s.store.Draw(entities.ScopeAny, count, s.cfg.Rand)
		for i := range fallback {
			if len(questions) >= s.cfg.MinQuestions {
				break
			}
			if _, ok := drawn[fallback[i].ID]; ok {
				continue
			}
			questions = append(questions, fallback[i])
		}
	}

	if len(questions) < s.cfg.MinQuestions {
		return nil, ErrInsufficientQuestions
	}

	return questions, nil
}

// questionTime returns the effective per-question limit, honoring the
// runtime settings override when present.
func (s *QuizService) questionTime(ctx context.Context) time.Duration {
	if s.settings == nil {
		return s.cfg.QuestionTime
	}

	raw, err := s.settings.Get(ctx, SettingTimePerQuestion)
	if err != nil || raw == "" {
		return s.cfg.QuestionTime
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return s.cfg.QuestionTime
	}

	return time.Duration(seconds) * time.Second
}

// emitTally hands the tally to the recorder. Recorder failures are logged
// and never propagate into the session lifecycle.
func (s *QuizService) emitTally(ctx context.Context, tally *entities.Tally) {
	if err := s.recorder.RecordTally(ctx, tally); err != nil {
		s.logger.Error("failed to record quiz tally",
			zap.Int64("user_id", tally.UserID),
			zap.Error(err),
		)
	}
}

func (s *QuizService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *QuizService) setTimer(userID int64, t *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[userID]; ok {
		prev.Cancel()
	}
	s.timers[userID] = t
}

func (s *QuizService) cancelTimer(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[userID]; ok {
		t.Cancel()
		delete(s.timers, userID)
	}
}

func (s *QuizService) clearTimer(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, userID)
}
