package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/infra/postgres"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts a new user or refreshes profile fields of an existing one.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, chat_id, username, first_name, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_active_at = now()
	`

	if _, err := r.db.Exec(ctx, query, user.ID, user.ChatID, user.Username, user.FirstName); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

// GetByID retrieves a user together with accumulated quiz statistics.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, chat_id, username, first_name,
		       total_questions, correct_answers, quizzes_completed,
		       created_at, last_active_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.ChatID,
		&user.Username,
		&user.FirstName,
		&user.TotalQuestions,
		&user.CorrectAnswers,
		&user.QuizzesCompleted,
		&user.CreatedAt,
		&user.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
