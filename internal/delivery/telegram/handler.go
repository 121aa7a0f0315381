package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/config"
	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

type Handler struct {
	bot       *tgbotapi.BotAPI
	logger    *zap.Logger
	cfg       *config.Config
	engine    QuizEngine
	catalog   QuestionCatalog
	userRepo  UserRepository
	stats     StatsProvider
	settings  SettingsRepository
	presenter *Presenter
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	cfg *config.Config,
	engine QuizEngine,
	catalog QuestionCatalog,
	userRepo UserRepository,
	stats StatsProvider,
	settings SettingsRepository,
	presenter *Presenter,
) *Handler {
	return &Handler{
		bot:       bot,
		logger:    logger,
		cfg:       cfg,
		engine:    engine,
		catalog:   catalog,
		userRepo:  userRepo,
		stats:     stats,
		settings:  settings,
		presenter: presenter,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID

	h.ensureUser(ctx, from, chatID)

	if !update.Message.IsCommand() {
		h.sendError(chatID, msgUnknownCommand)
		return
	}

	switch update.Message.Command() {
	case "start":
		msg := newMarkdownMessage(chatID, msgWelcome)
		msg.ReplyMarkup = buildCountryKeyboard(h.cfg.Countries)
		h.send(msg)

	case "quiz":
		msg := newMarkdownMessage(chatID, msgChooseCountry)
		msg.ReplyMarkup = buildCountryKeyboard(h.cfg.Countries)
		h.send(msg)

	case "stop":
		h.handleStopCommand(ctx, from.ID, chatID)

	case "stats":
		_ = h.withErrorHandling(h.statsHandler(from.ID))(ctx, chatID)

	case "top":
		_ = h.withErrorHandling(h.topHandler())(ctx, chatID)

	case "help":
		h.send(newMarkdownMessage(chatID, msgHelp))

	case "admin":
		h.handleAdminCommand(from.ID, chatID)

	default:
		h.sendError(chatID, msgUnknownCommand)
	}
}

// ensureUser upserts the user profile on every incoming message.
func (h *Handler) ensureUser(ctx context.Context, from *tgbotapi.User, chatID int64) {
	if from == nil {
		return
	}
	user := entities.NewUser(from.ID, chatID, from.UserName, from.FirstName)
	if err := h.userRepo.Save(ctx, user); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	}
}

// handleStopCommand aborts the user's running quiz and reports the partial
// result.
func (h *Handler) handleStopCommand(ctx context.Context, userID, chatID int64) {
	tally, err := h.engine.Abort(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			h.send(newMarkdownMessage(chatID, msgNoActiveQuiz))
			return
		}
		h.logger.Error("failed to abort quiz",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return
	}

	msg := newMarkdownMessage(chatID, formatQuizResult(tally))
	msg.ReplyMarkup = buildResultKeyboard()
	h.send(msg)
}

// statsHandler builds the /stats response for the user.
func (h *Handler) statsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		user, err := h.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		h.send(newMarkdownMessage(chatID, formatUserStats(user)))
		return nil
	}
}

// topHandler builds the /top leaderboard response.
func (h *Handler) topHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		users, err := h.stats.GetTopUsers(ctx, 10)
		if err != nil {
			return err
		}

		h.send(newMarkdownMessage(chatID, formatTopUsers(users)))
		return nil
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
