package service

import (
	"context"
	"math/rand"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
)

// QuestionStore supplies validated questions for quiz sessions.
type QuestionStore interface {
	Count(scope entities.Scope) int
	Draw(scope entities.Scope, count int, rng *rand.Rand) []entities.Question
}

// StatsRecorder receives finalized session results for external persistence.
type StatsRecorder interface {
	RecordTally(ctx context.Context, tally *entities.Tally) error
}

// SettingsRepository provides runtime-adjustable settings stored externally.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// QuestionView is the presentation data for one armed question.
type QuestionView struct {
	Question entities.Question // the question to render
	Number   int               // 1-based position within the session
	Total    int               // total questions in the session
	Limit    int               // time limit in seconds
}

// AnswerView is the presentation data for per-answer feedback.
type AnswerView struct {
	Question entities.Question // the question that was resolved
	Answer   string            // chosen option key, empty on timeout
	Correct  bool              // whether the answer was correct
	TimedOut bool              // whether the question timed out
}

// QuizPresenter delivers quiz progress to the transport layer. The engine
// pushes presentation events; nothing is polled.
type QuizPresenter interface {
	PresentQuestion(userID int64, view QuestionView)
	PresentTick(userID int64, view QuestionView, remaining int)
	PresentAnswerResult(userID int64, view AnswerView)
	PresentResult(userID int64, tally *entities.Tally)
}
