package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/service"
)

// tickEditInterval controls how often the countdown message is edited.
// Editing on every second tick keeps within Telegram rate limits.
const tickEditInterval = 2

// Presenter delivers quiz engine events into Telegram chats. It tracks the
// chat and the current question message per user so the countdown can edit
// the question in place.
type Presenter struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger

	mu       sync.Mutex
	chats    map[int64]int64 // user ID -> chat ID
	messages map[int64]int   // user ID -> current question message ID
}

// NewPresenter creates a Presenter.
func NewPresenter(bot *tgbotapi.BotAPI, logger *zap.Logger) *Presenter {
	return &Presenter{
		bot:      bot,
		logger:   logger,
		chats:    make(map[int64]int64),
		messages: make(map[int64]int),
	}
}

// Bind associates a user with the chat their quiz messages go to. Called by
// the handler before a session starts.
func (p *Presenter) Bind(userID, chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats[userID] = chatID
}

// PresentQuestion sends a new question message with the answer keyboard.
func (p *Presenter) PresentQuestion(userID int64, view service.QuestionView) {
	chatID := p.chatFor(userID)

	msg := newMarkdownMessage(chatID, formatQuestion(view, view.Limit))
	kb := buildAnswerKeyboard(view.Number-1, view.Question.OptionKeys())
	msg.ReplyMarkup = kb

	sent, err := p.bot.Send(msg)
	if err != nil {
		p.logger.Error("failed to send question",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	p.mu.Lock()
	p.messages[userID] = sent.MessageID
	p.mu.Unlock()
}

// PresentTick refreshes the countdown in the question message. Edit errors
// are ignored: a tick racing an answer is harmless.
func (p *Presenter) PresentTick(userID int64, view service.QuestionView, remaining int) {
	if remaining <= 0 || remaining%tickEditInterval != 0 {
		return
	}

	chatID, msgID := p.chatAndMessage(userID)
	if msgID == 0 {
		return
	}

	edit := newMarkdownEdit(chatID, msgID, formatQuestion(view, remaining))
	kb := buildAnswerKeyboard(view.Number-1, view.Question.OptionKeys())
	edit.ReplyMarkup = &kb

	_, _ = p.bot.Send(edit)
}

// PresentAnswerResult replaces the question message with the answer feedback.
func (p *Presenter) PresentAnswerResult(userID int64, view service.AnswerView) {
	chatID, msgID := p.chatAndMessage(userID)
	if msgID == 0 {
		return
	}

	edit := newMarkdownEdit(chatID, msgID, formatAnswerResult(view))
	if _, err := p.bot.Send(edit); err != nil {
		p.logger.Debug("failed to edit answer result",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// PresentResult sends the final tally message with the result keyboard.
func (p *Presenter) PresentResult(userID int64, tally *entities.Tally) {
	chatID := p.chatFor(userID)

	msg := newMarkdownMessage(chatID, formatQuizResult(tally))
	msg.ReplyMarkup = buildResultKeyboard()

	if _, err := p.bot.Send(msg); err != nil {
		p.logger.Error("failed to send quiz result",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// chatFor returns the bound chat for the user, falling back to the user ID,
// which equals the chat ID for private chats.
func (p *Presenter) chatFor(userID int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if chatID, ok := p.chats[userID]; ok {
		return chatID
	}
	return userID
}

func (p *Presenter) chatAndMessage(userID int64) (int64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	chatID, ok := p.chats[userID]
	if !ok {
		chatID = userID
	}
	return chatID, p.messages[userID]
}
