// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

// Error and info messages.
const (
	msgInternalError      = "Что-то пошло не так. Попробуйте позже."
	msgUnknownCommand     = "Неизвестная команда. Используйте /help для списка команд."
	msgNoActiveQuiz       = "⚠️ У вас нет активной викторины."
	msgNoExplanations     = "❌ Нет данных для отображения!"
	msgSessionNotFound    = "❌ Сессия не найдена! Начните новую викторину."
	msgQuestionNotActive  = "❌ Этот вопрос уже не активен!"
	msgAnswerCorrect      = "✅ Правильно!"
	msgAnswerWrong        = "❌ Неправильно!"
	msgStatsUnavailable   = "Не удалось получить статистику. Попробуйте позже."
	msgNotAdmin           = "⛔ Эта команда доступна только администратору."
	msgWelcome            = "🍷 *Добро пожаловать в Wine Quiz!*\n\nПроверьте свои знания о винах и винодельческих регионах. Выберите страну, регион и количество вопросов — и вперёд!\n\nКоманды:\n/quiz — начать викторину\n/stop — остановить викторину\n/stats — моя статистика\n/top — таблица лидеров\n/help — помощь"
	msgHelp               = "🍷 *Wine Quiz Bot*\n\n/quiz — начать викторину\n/stop — остановить текущую викторину\n/stats — моя статистика\n/top — таблица лидеров\n\nНа каждый вопрос даётся ограниченное время. Ответ после истечения времени засчитывается как неправильный."
	msgChooseCountry      = "🌍 *Выберите страну:*"
	msgChooseCount        = "🔢 *Сколько вопросов?*"
	msgExplanationMissing = "Пояснение отсутствует."
)

// Result messages keyed on the share of correct answers.
const (
	msgResultExcellent = "🏆 Ты — истинный энциклопедист вина! Браво!"
	msgResultGood      = "👍 Отличный результат! Видно, что ты не просто пьёшь, но и изучаешь!"
	msgResultAverage   = "😊 Хорошая попытка! Каждый вопрос — шаг к экспертизе. Возвращайся за новыми знаниями!"
)

const (
	progressBarLength  = 10
	maxMessageLength   = 4000
	shortQuestionLimit = 100
)

// newMarkdownMessage creates a message with Markdown parse mode.
func newMarkdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

// newMarkdownEdit creates an edit with Markdown parse mode.
func newMarkdownEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	return edit
}

// progressBar renders the countdown as a filled/empty bar.
func progressBar(remaining, total int) string {
	if total <= 0 {
		return strings.Repeat("░", progressBarLength)
	}
	filled := remaining * progressBarLength / total
	if filled > progressBarLength {
		filled = progressBarLength
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarLength-filled)
}

// formatQuestion renders one armed question, optionally with the countdown.
func formatQuestion(view service.QuestionView, remaining int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "❓ *Вопрос %d/%d:*\n\n", view.Number, view.Total)
	sb.WriteString(view.Question.Text)
	sb.WriteString("\n\n")

	for _, key := range view.Question.OptionKeys() {
		fmt.Fprintf(&sb, "%s) %s\n", key, view.Question.Options[key])
	}

	if remaining > 0 {
		fmt.Fprintf(&sb, "\n⏱ Осталось: %d сек [%s]", remaining, progressBar(remaining, view.Limit))
	}

	return sb.String()
}

// formatAnswerResult renders per-answer feedback, marking the correct option
// and, when wrong, the chosen one.
func formatAnswerResult(view service.AnswerView) string {
	var sb strings.Builder

	switch {
	case view.TimedOut:
		sb.WriteString("❌ *Время вышло!*\n\n")
	case view.Correct:
		sb.WriteString("✅ *Правильно!*\n\n")
	default:
		sb.WriteString("❌ *Неправильно!*\n\n")
	}

	sb.WriteString(view.Question.Text)
	sb.WriteString("\n\n")

	for _, key := range view.Question.OptionKeys() {
		marker := ""
		if key == view.Question.CorrectAnswer {
			marker = " ✅"
		} else if key == view.Answer && !view.Correct {
			marker = " ❌"
		}
		fmt.Fprintf(&sb, "%s) %s%s\n", key, view.Question.Options[key], marker)
	}

	return sb.String()
}

// formatQuizResult renders the final tally message.
func formatQuizResult(tally *entities.Tally) string {
	percentage := 0.0
	if tally.TotalQuestions > 0 {
		percentage = float64(tally.CorrectCount) * 100 / float64(tally.TotalQuestions)
	}

	var sb strings.Builder
	if tally.Aborted {
		sb.WriteString("⏹ *Викторина остановлена.*\n\n")
	} else {
		sb.WriteString("🎉 *ВИКТОРИНА ЗАВЕРШЕНА!*\n\n")
	}

	fmt.Fprintf(&sb, "✅ Правильных ответов: %d из %d (%.1f%%)\n\n",
		tally.CorrectCount, tally.TotalQuestions, percentage)
	sb.WriteString(resultMessage(percentage))

	return sb.String()
}

// resultMessage returns the encouragement line for the score.
func resultMessage(percentage float64) string {
	switch {
	case percentage >= 95:
		return msgResultExcellent
	case percentage >= 70:
		return msgResultGood
	default:
		return msgResultAverage
	}
}

// formatExplanation renders the explanation for one resolved question.
func formatExplanation(q *entities.Question, outcome entities.Outcome, index int) string {
	status := "✅"
	if !outcome.Correct {
		status = "❌"
	}
	if outcome.TimedOut {
		status += " (время вышло)"
	}

	text := q.Text
	if len([]rune(text)) > shortQuestionLimit {
		text = string([]rune(text)[:shortQuestionLimit-3]) + "..."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d. %s*\n", index+1, status)
	fmt.Fprintf(&sb, "_%s_\n\n", text)
	fmt.Fprintf(&sb, "📝 Правильный ответ: *%s) %s*\n", q.CorrectAnswer, q.Options[q.CorrectAnswer])

	if outcome.Answer != "" && outcome.Answer != q.CorrectAnswer {
		fmt.Fprintf(&sb, "❌ Ваш ответ: %s) %s\n", outcome.Answer, q.Options[outcome.Answer])
	}

	explanation := q.Explanation
	if explanation == "" {
		explanation = msgExplanationMissing
	}
	fmt.Fprintf(&sb, "\n📖 *Пояснение:*\n%s", explanation)

	return sb.String()
}

// formatAllExplanations renders the compact list of every explanation.
func formatAllExplanations(session *entities.Session) string {
	var sb strings.Builder
	sb.WriteString("📚 *Пояснения к вопросам викторины:*\n\n")

	for i := range session.Outcomes {
		q := &session.Questions[i]
		outcome := session.Outcomes[i]

		status := "✅"
		if !outcome.Correct {
			status = "❌"
		}

		text := q.Text
		if len([]rune(text)) > 80 {
			text = string([]rune(text)[:77]) + "..."
		}

		explanation := q.Explanation
		if len([]rune(explanation)) > 200 {
			explanation = string([]rune(explanation)[:197]) + "..."
		}

		fmt.Fprintf(&sb, "*%d.* %s %s\n", i+1, status, text)
		fmt.Fprintf(&sb, "   ➡️ %s) %s\n", q.CorrectAnswer, q.Options[q.CorrectAnswer])
		fmt.Fprintf(&sb, "   _%s_\n\n", explanation)
	}

	out := sb.String()
	// Telegram caps message length at 4096 characters.
	if len(out) > maxMessageLength {
		out = out[:maxMessageLength-3] + "..."
	}
	return out
}

// formatUserStats renders the /stats message.
func formatUserStats(user *entities.User) string {
	var sb strings.Builder
	sb.WriteString("📊 *Ваша статистика:*\n\n")
	fmt.Fprintf(&sb, "🎯 Викторин пройдено: %d\n", user.QuizzesCompleted)
	fmt.Fprintf(&sb, "❓ Всего вопросов: %d\n", user.TotalQuestions)
	fmt.Fprintf(&sb, "✅ Правильных ответов: %d\n", user.CorrectAnswers)
	fmt.Fprintf(&sb, "📈 Процент успеха: %.1f%%", user.SuccessRate())
	return sb.String()
}

// formatTopUsers renders the /top leaderboard.
func formatTopUsers(users []*entities.User) string {
	if len(users) == 0 {
		return "Пока никто не прошёл ни одной викторины. Будьте первым!"
	}

	medals := []string{"🥇", "🥈", "🥉"}

	var sb strings.Builder
	sb.WriteString("🏆 *Таблица лидеров:*\n\n")
	for i, user := range users {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}

		name := user.FirstName
		if name == "" && user.Username != "" {
			name = "@" + user.Username
		}
		if name == "" {
			name = fmt.Sprintf("id%d", user.ID)
		}

		fmt.Fprintf(&sb, "%s %s — %.1f%% (%d из %d)\n",
			place, name, user.SuccessRate(), user.CorrectAnswers, user.TotalQuestions)
	}
	return sb.String()
}
