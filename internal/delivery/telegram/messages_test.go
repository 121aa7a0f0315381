package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

func sampleQuestion() entities.Question {
	return entities.Question{
		ID:   "q1",
		Text: "Какой сорт является основой Кьянти?",
		Options: map[string]string{
			"a": "Неббиоло",
			"b": "Санджовезе",
			"c": "Барбера",
		},
		CorrectAnswer: "b",
		Explanation:   "Кьянти делается в основном из Санджовезе.",
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "██████████", progressBar(10, 10))
	assert.Equal(t, "█████░░░░░", progressBar(5, 10))
	assert.Equal(t, "░░░░░░░░░░", progressBar(0, 10))
	assert.Equal(t, "░░░░░░░░░░", progressBar(5, 0))
	assert.Equal(t, "██████████", progressBar(20, 10))
}

func TestFormatQuestion(t *testing.T) {
	t.Parallel()

	view := service.QuestionView{Question: sampleQuestion(), Number: 2, Total: 10, Limit: 10}

	got := formatQuestion(view, 10)
	assert.Contains(t, got, "Вопрос 2/10")
	assert.Contains(t, got, "a) Неббиоло")
	assert.Contains(t, got, "b) Санджовезе")
	assert.Contains(t, got, "c) Барбера")
	assert.Contains(t, got, "Осталось: 10 сек")
	assert.Contains(t, got, "██████████")

	// Options render in key order regardless of map iteration.
	assert.Less(t, strings.Index(got, "a)"), strings.Index(got, "b)"))
	assert.Less(t, strings.Index(got, "b)"), strings.Index(got, "c)"))

	// Without a countdown the bar is omitted entirely.
	assert.NotContains(t, formatQuestion(view, 0), "⏱")
}

func TestFormatAnswerResult(t *testing.T) {
	t.Parallel()

	q := sampleQuestion()

	correct := formatAnswerResult(service.AnswerView{Question: q, Answer: "b", Correct: true})
	assert.Contains(t, correct, "✅ *Правильно!*")
	assert.Contains(t, correct, "b) Санджовезе ✅")

	wrong := formatAnswerResult(service.AnswerView{Question: q, Answer: "a"})
	assert.Contains(t, wrong, "❌ *Неправильно!*")
	assert.Contains(t, wrong, "a) Неббиоло ❌")
	assert.Contains(t, wrong, "b) Санджовезе ✅")

	timedOut := formatAnswerResult(service.AnswerView{Question: q, TimedOut: true})
	assert.Contains(t, timedOut, "Время вышло")
	assert.Contains(t, timedOut, "b) Санджовезе ✅")
}

func TestFormatQuizResult(t *testing.T) {
	t.Parallel()

	completed := formatQuizResult(&entities.Tally{TotalQuestions: 10, CorrectCount: 10})
	assert.Contains(t, completed, "ВИКТОРИНА ЗАВЕРШЕНА")
	assert.Contains(t, completed, "10 из 10 (100.0%)")
	assert.Contains(t, completed, msgResultExcellent)

	good := formatQuizResult(&entities.Tally{TotalQuestions: 10, CorrectCount: 7})
	assert.Contains(t, good, msgResultGood)

	average := formatQuizResult(&entities.Tally{TotalQuestions: 10, CorrectCount: 3})
	assert.Contains(t, average, msgResultAverage)

	aborted := formatQuizResult(&entities.Tally{TotalQuestions: 4, CorrectCount: 2, Aborted: true})
	assert.Contains(t, aborted, "Викторина остановлена")
	assert.Contains(t, aborted, "2 из 4 (50.0%)")
}

func TestFormatExplanation(t *testing.T) {
	t.Parallel()

	q := sampleQuestion()

	wrong := formatExplanation(&q, entities.Outcome{QuestionID: "q1", Answer: "a"}, 0)
	assert.Contains(t, wrong, "*1. ❌*")
	assert.Contains(t, wrong, "Правильный ответ: *b) Санджовезе*")
	assert.Contains(t, wrong, "Ваш ответ: a) Неббиоло")
	assert.Contains(t, wrong, q.Explanation)

	timedOut := formatExplanation(&q, entities.Outcome{QuestionID: "q1", TimedOut: true}, 2)
	assert.Contains(t, timedOut, "*3. ❌ (время вышло)*")
	assert.NotContains(t, timedOut, "Ваш ответ")

	q.Explanation = ""
	noExpl := formatExplanation(&q, entities.Outcome{QuestionID: "q1", Answer: "b", Correct: true}, 0)
	assert.Contains(t, noExpl, "*1. ✅*")
	assert.Contains(t, noExpl, msgExplanationMissing)
}

func TestFormatAllExplanationsTruncates(t *testing.T) {
	t.Parallel()

	questions := make([]entities.Question, 0, 30)
	outcomes := make([]entities.Outcome, 0, 30)
	long := strings.Repeat("очень длинное пояснение ", 20)
	for i := 0; i < 30; i++ {
		q := sampleQuestion()
		q.Explanation = long
		questions = append(questions, q)
		outcomes = append(outcomes, entities.Outcome{QuestionID: q.ID, Answer: "b", Correct: true})
	}

	session := entities.NewSession(1, entities.ScopeAny, questions)
	session.Outcomes = outcomes

	got := formatAllExplanations(session)
	assert.LessOrEqual(t, len(got), maxMessageLength)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFormatTopUsers(t *testing.T) {
	t.Parallel()

	assert.Contains(t, formatTopUsers(nil), "Будьте первым")

	users := []*entities.User{
		{ID: 1, FirstName: "Анна", TotalQuestions: 20, CorrectAnswers: 18},
		{ID: 2, Username: "vino_lover", TotalQuestions: 20, CorrectAnswers: 15},
		{ID: 3, TotalQuestions: 10, CorrectAnswers: 5},
		{ID: 4, FirstName: "Пётр", TotalQuestions: 10, CorrectAnswers: 4},
	}

	got := formatTopUsers(users)
	assert.Contains(t, got, "🥇 Анна — 90.0% (18 из 20)")
	assert.Contains(t, got, "🥈 @vino_lover")
	assert.Contains(t, got, "🥉 id3")
	assert.Contains(t, got, "4. Пётр")
}
