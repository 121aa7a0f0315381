package telegram

import (
	"context"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/repository"
)

// QuizEngine is the quiz session state machine the handler drives.
type QuizEngine interface {
	Start(ctx context.Context, userID int64, scope entities.Scope, count int) (*entities.Session, error)
	SubmitAnswer(ctx context.Context, userID int64, questionIndex int, optionKey string) (entities.Outcome, error)
	Abort(ctx context.Context, userID int64) (*entities.Tally, error)
	Session(userID int64) *entities.Session
}

// QuestionCatalog exposes pool sizes for the selection menus and the admin
// reload action.
type QuestionCatalog interface {
	Count(scope entities.Scope) int
	Reload() ([]*repository.ValidationError, error)
}

// UserRepository persists user profiles.
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
}

// StatsProvider serves aggregated statistics for /top and the admin panel.
type StatsProvider interface {
	GetTopUsers(ctx context.Context, limit int) ([]*entities.User, error)
	GetAllUsers(ctx context.Context) ([]*entities.User, error)
	GetTotalStats(ctx context.Context) (int, int, error)
}

// SettingsRepository stores runtime-adjustable settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
