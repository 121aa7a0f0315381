// admin.go contains the admin panel: global stats, CSV export, question
// reload and the runtime time-limit override. Gated on the configured admin ID.

package telegram

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

const msgAdminPanel = "🔧 *Админ-панель*\n\nВыберите действие:"

func (h *Handler) isAdmin(userID int64) bool {
	return h.cfg.AdminID != 0 && userID == h.cfg.AdminID
}

// handleAdminCommand shows the admin panel.
func (h *Handler) handleAdminCommand(userID, chatID int64) {
	if !h.isAdmin(userID) {
		h.sendError(chatID, msgNotAdmin)
		return
	}

	msg := newMarkdownMessage(chatID, msgAdminPanel)
	msg.ReplyMarkup = buildAdminKeyboard()
	h.send(msg)
}

// handleAdminCallback dispatches admin panel actions.
func (h *Handler) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) {
	if !h.isAdmin(cb.From.ID) {
		h.answerCallbackAlert(cb.ID, msgNotAdmin)
		return
	}

	if len(data.Params) == 0 {
		h.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	switch data.Params[0] {
	case adminMenu:
		edit := newMarkdownEdit(chatID, msgID, msgAdminPanel)
		kb := buildAdminKeyboard()
		edit.ReplyMarkup = &kb
		h.send(edit)

	case adminStats:
		h.showAdminStats(ctx, chatID, msgID)

	case adminExport:
		h.exportUsersCSV(ctx, chatID)

	case adminReload:
		h.reloadQuestions(chatID, msgID)

	case adminTime:
		if len(data.Params) >= 2 {
			h.setTimePerQuestion(ctx, cb, data.Params[1])
			return
		}
		edit := newMarkdownEdit(chatID, msgID, "⏱ *Время на вопрос:*")
		kb := buildTimeKeyboard()
		edit.ReplyMarkup = &kb
		h.send(edit)
	}

	h.answerCallback(cb.ID, "")
}

// showAdminStats renders global bot statistics with the leaderboard.
func (h *Handler) showAdminStats(ctx context.Context, chatID int64, msgID int) {
	users, answers, err := h.stats.GetTotalStats(ctx)
	if err != nil {
		h.logger.Error("failed to get total stats", zap.Error(err))
		h.sendError(chatID, msgStatsUnavailable)
		return
	}

	top, err := h.stats.GetTopUsers(ctx, 10)
	if err != nil {
		h.logger.Error("failed to get top users", zap.Error(err))
		h.sendError(chatID, msgStatsUnavailable)
		return
	}

	text := fmt.Sprintf("📊 *Общая статистика*\n\n👥 Пользователей: %d\n❓ Всего ответов: %d\n📚 Вопросов в базе: %d\n\n%s",
		users, answers, h.catalog.Count(entities.ScopeAny), formatTopUsers(top))

	edit := newMarkdownEdit(chatID, msgID, text)
	kb := buildAdminKeyboard()
	edit.ReplyMarkup = &kb
	h.send(edit)
}

// exportUsersCSV sends user statistics as a CSV document.
func (h *Handler) exportUsersCSV(ctx context.Context, chatID int64) {
	users, err := h.stats.GetAllUsers(ctx)
	if err != nil {
		h.logger.Error("failed to export users", zap.Error(err))
		h.sendError(chatID, msgStatsUnavailable)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	_ = w.Write([]string{
		"user_id", "username", "first_name", "total_questions",
		"correct_answers", "success_rate", "quizzes_completed", "last_active",
	})
	for _, user := range users {
		_ = w.Write([]string{
			strconv.FormatInt(user.ID, 10),
			user.Username,
			user.FirstName,
			strconv.Itoa(user.TotalQuestions),
			strconv.Itoa(user.CorrectAnswers),
			fmt.Sprintf("%.1f%%", user.SuccessRate()),
			strconv.Itoa(user.QuizzesCompleted),
			user.LastActiveAt.Format(time.RFC3339),
		})
	}
	w.Flush()

	name := fmt.Sprintf("users_%s.csv", time.Now().Format("2006-01-02"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  name,
		Bytes: buf.Bytes(),
	})
	h.send(doc)
}

// reloadQuestions re-reads the question files and reports the result. A
// failed reload keeps the previous pool, so this never breaks the bot.
func (h *Handler) reloadQuestions(chatID int64, msgID int) {
	warnings, err := h.catalog.Reload()
	for _, warning := range warnings {
		h.logger.Warn("question validation warning", zap.String("record", warning.Error()))
	}

	var text string
	if err != nil {
		text = fmt.Sprintf("⚠️ Перезагрузка не удалась: %v\n\nПрежний пул вопросов сохранён.", err)
	} else {
		text = fmt.Sprintf("✅ Вопросы перезагружены: %d в базе, %d предупреждений.",
			h.catalog.Count(entities.ScopeAny), len(warnings))
	}

	edit := newMarkdownEdit(chatID, msgID, text)
	kb := buildAdminKeyboard()
	edit.ReplyMarkup = &kb
	h.send(edit)
}

// setTimePerQuestion stores the runtime time-limit override.
func (h *Handler) setTimePerQuestion(ctx context.Context, cb *tgbotapi.CallbackQuery, raw string) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		h.answerCallback(cb.ID, "")
		return
	}

	if err := h.settings.Set(ctx, service.SettingTimePerQuestion, strconv.Itoa(seconds)); err != nil {
		h.logger.Error("failed to set time per question", zap.Error(err))
		h.answerCallbackAlert(cb.ID, msgInternalError)
		return
	}

	edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("✅ Время на вопрос: %d сек.", seconds))
	kb := buildAdminKeyboard()
	edit.ReplyMarkup = &kb
	h.send(edit)
	h.answerCallback(cb.ID, "")
}
