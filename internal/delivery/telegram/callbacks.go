package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	h.ensureUser(ctx, cb.From, cb.Message.Chat.ID)

	data := decodeCallback(cb.Data)

	switch data.Action {
	case actionMenu:
		h.handleMenuCallback(cb)
	case actionQuiz:
		h.handleQuizCallback(ctx, cb, data)
	case actionAnswer:
		h.handleAnswerCallback(ctx, cb, data)
	case actionStop:
		h.handleStopCallback(ctx, cb)
	case actionExpl:
		h.handleExplanationCallback(cb, data)
	case actionAdmin:
		h.handleAdminCallback(ctx, cb, data)
	default:
		h.answerCallback(cb.ID, "")
	}
}

// handleMenuCallback replaces the current message with the country menu.
func (h *Handler) handleMenuCallback(cb *tgbotapi.CallbackQuery) {
	edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, msgChooseCountry)
	kb := buildCountryKeyboard(h.cfg.Countries)
	edit.ReplyMarkup = &kb
	h.send(edit)
	h.answerCallback(cb.ID, "")
}

// handleQuizCallback drives the country -> region -> count selection flow
// and starts the session.
func (h *Handler) handleQuizCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) {
	if len(data.Params) == 0 {
		h.answerCallback(cb.ID, "")
		return
	}

	switch data.Params[0] {
	case quizCountry:
		if len(data.Params) < 2 {
			h.answerCallback(cb.ID, "")
			return
		}
		h.showRegions(cb, data.Params[1])

	case quizRegion:
		if len(data.Params) < 3 {
			h.answerCallback(cb.ID, "")
			return
		}
		h.showCounts(cb, data.Params[1], data.Params[2])

	case quizStart:
		if len(data.Params) < 4 {
			h.answerCallback(cb.ID, "")
			return
		}
		count, err := strconv.Atoi(data.Params[3])
		if err != nil || count <= 0 {
			h.answerCallback(cb.ID, "")
			return
		}
		h.startQuiz(ctx, cb, data.Params[1], data.Params[2], count)

	default:
		h.answerCallback(cb.ID, "")
	}
}

// showRegions edits the message into the region menu for the country.
func (h *Handler) showRegions(cb *tgbotapi.CallbackQuery, countryCode string) {
	country, ok := h.cfg.CountryByCode(countryCode)
	if !ok {
		h.answerCallback(cb.ID, "")
		return
	}

	regionCounts := make(map[string]int, len(country.Regions))
	for _, region := range country.Regions {
		regionCounts[region.Code] = h.catalog.Count(entities.Scope{
			Country: country.Code,
			Region:  region.Code,
		})
	}

	text := fmt.Sprintf("%s\n\n🗺 *Выберите регион:*", country.Name)
	edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, text)
	kb := buildRegionKeyboard(country, regionCounts)
	edit.ReplyMarkup = &kb
	h.send(edit)
	h.answerCallback(cb.ID, "")
}

// showCounts edits the message into the question count menu.
func (h *Handler) showCounts(cb *tgbotapi.CallbackQuery, countryCode, regionCode string) {
	edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, msgChooseCount)
	kb := buildCountKeyboard(countryCode, regionCode, h.cfg.Quiz.QuestionCounts)
	edit.ReplyMarkup = &kb
	h.send(edit)
	h.answerCallback(cb.ID, "")
}

// startQuiz binds the user's chat and starts a session for the chosen scope.
func (h *Handler) startQuiz(ctx context.Context, cb *tgbotapi.CallbackQuery, countryCode, regionCode string, count int) {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	scope := scopeFromParams(countryCode, regionCode)

	h.presenter.Bind(userID, chatID)

	// Remove the selection menu; the first question arrives as a new message.
	h.send(tgbotapi.NewDeleteMessage(chatID, cb.Message.MessageID))

	if _, err := h.engine.Start(ctx, userID, scope, count); err != nil {
		if errors.Is(err, service.ErrInsufficientQuestions) {
			available := h.catalog.Count(scope)
			h.answerCallbackAlert(cb.ID, fmt.Sprintf(
				"❌ Недостаточно вопросов! Минимум %d, доступно %d.",
				h.cfg.Quiz.MinQuestions, available,
			))
			return
		}

		h.logger.Error("failed to start quiz",
			zap.Int64("user_id", userID),
			zap.String("scope", scope.String()),
			zap.Error(err),
		)
		h.answerCallbackAlert(cb.ID, msgInternalError)
		return
	}

	h.answerCallback(cb.ID, "")
}

// handleAnswerCallback applies the user's answer to the engine.
func (h *Handler) handleAnswerCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) {
	if len(data.Params) < 2 {
		h.answerCallback(cb.ID, "")
		return
	}

	index, err := strconv.Atoi(data.Params[0])
	if err != nil || index < 0 {
		h.answerCallback(cb.ID, "")
		return
	}
	key := data.Params[1]

	outcome, err := h.engine.SubmitAnswer(ctx, cb.From.ID, index, key)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			h.answerCallbackAlert(cb.ID, msgSessionNotFound)
		case errors.Is(err, service.ErrInvalidState):
			h.answerCallbackAlert(cb.ID, msgQuestionNotActive)
		default:
			h.logger.Error("failed to submit answer",
				zap.Int64("user_id", cb.From.ID),
				zap.Error(err),
			)
			h.answerCallbackAlert(cb.ID, msgInternalError)
		}
		return
	}

	if outcome.Correct {
		h.answerCallback(cb.ID, msgAnswerCorrect)
	} else {
		h.answerCallback(cb.ID, msgAnswerWrong)
	}
}

// handleStopCallback aborts the quiz from the inline stop button.
func (h *Handler) handleStopCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	tally, err := h.engine.Abort(ctx, cb.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			h.answerCallbackAlert(cb.ID, msgNoActiveQuiz)
			return
		}
		h.logger.Error("failed to abort quiz",
			zap.Int64("user_id", cb.From.ID),
			zap.Error(err),
		)
		h.answerCallbackAlert(cb.ID, msgInternalError)
		return
	}

	edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, formatQuizResult(tally))
	kb := buildResultKeyboard()
	edit.ReplyMarkup = &kb
	h.send(edit)
	h.answerCallback(cb.ID, "")
}

// handleExplanationCallback drives the post-quiz explanation browser over
// the archived session's outcome log.
func (h *Handler) handleExplanationCallback(cb *tgbotapi.CallbackQuery, data callbackData) {
	session := h.engine.Session(cb.From.ID)
	if session == nil || len(session.Outcomes) == 0 {
		h.answerCallbackAlert(cb.ID, msgNoExplanations)
		return
	}

	if len(data.Params) == 0 {
		h.answerCallback(cb.ID, "")
		return
	}

	switch data.Params[0] {
	case explAll:
		edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, formatAllExplanations(session))
		kb := buildBackToMenuKeyboard()
		edit.ReplyMarkup = &kb
		h.send(edit)

	case explShow:
		if len(data.Params) < 2 {
			h.answerCallback(cb.ID, "")
			return
		}
		index, err := strconv.Atoi(data.Params[1])
		if err != nil || index < 0 || index >= len(session.Outcomes) {
			h.answerCallbackAlert(cb.ID, msgNoExplanations)
			return
		}

		text := formatExplanation(&session.Questions[index], session.Outcomes[index], index)
		edit := newMarkdownEdit(cb.Message.Chat.ID, cb.Message.MessageID, text)
		kb := buildExplanationKeyboard(index, len(session.Outcomes))
		edit.ReplyMarkup = &kb
		h.send(edit)
	}

	h.answerCallback(cb.ID, "")
}

// scopeFromParams converts callback payload parts into a question scope.
func scopeFromParams(country, region string) entities.Scope {
	scope := entities.Scope{}
	if country != scopeAll {
		scope.Country = country
	}
	if region != scopeAll {
		scope.Region = region
	}
	return scope
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}

func (h *Handler) answerCallbackAlert(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallbackWithAlert(id, text)); err != nil {
		h.logger.Debug("callback alert error", zap.Error(err))
	}
}
