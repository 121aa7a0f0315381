package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
	"github.com/okuznetsov/wine-quiz-bot/internal/infra/postgres"
)

// StatsRepository persists finalized quiz tallies and serves aggregated
// user statistics for the leaderboard and the admin export.
type StatsRepository struct {
	db postgres.DBTX
	tx *postgres.Transactor
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db postgres.DBTX, tx *postgres.Transactor) *StatsRepository {
	return &StatsRepository{db: db, tx: tx}
}

// RecordTally applies a finalized tally to the user's accumulated totals and
// stores a per-run summary row. Both writes happen in one transaction.
// Aborted runs add to the answer totals but do not count as a completed quiz.
func (r *StatsRepository) RecordTally(ctx context.Context, tally *entities.Tally) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		completedInc := 1
		if tally.Aborted {
			completedInc = 0
		}

		updateQuery := `
			UPDATE users
			SET total_questions = total_questions + $1,
			    correct_answers = correct_answers + $2,
			    quizzes_completed = quizzes_completed + $3,
			    last_active_at = now()
			WHERE id = $4
		`
		if _, err := tx.Exec(ctx, updateQuery,
			tally.TotalQuestions,
			tally.CorrectCount,
			completedInc,
			tally.UserID,
		); err != nil {
			return fmt.Errorf("update user stats: %w", err)
		}

		insertQuery := `
			INSERT INTO quiz_runs (user_id, scope, total_questions, correct_answers, aborted, elapsed_ms, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
		`
		if _, err := tx.Exec(ctx, insertQuery,
			tally.UserID,
			tally.Scope.String(),
			tally.TotalQuestions,
			tally.CorrectCount,
			tally.Aborted,
			tally.Elapsed.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert quiz run: %w", err)
		}

		return nil
	})
}

// GetTopUsers returns the best-scoring users ordered by success rate.
func (r *StatsRepository) GetTopUsers(ctx context.Context, limit int) ([]*entities.User, error) {
	query := `
		SELECT id, chat_id, username, first_name,
		       total_questions, correct_answers, quizzes_completed,
		       created_at, last_active_at
		FROM users
		WHERE total_questions > 0
		ORDER BY correct_answers * 100.0 / total_questions DESC, total_questions DESC
		LIMIT $1
	`

	return r.queryUsers(ctx, query, limit)
}

// GetAllUsers returns every user ordered by score, for the CSV export.
func (r *StatsRepository) GetAllUsers(ctx context.Context) ([]*entities.User, error) {
	query := `
		SELECT id, chat_id, username, first_name,
		       total_questions, correct_answers, quizzes_completed,
		       created_at, last_active_at
		FROM users
		ORDER BY correct_answers DESC, total_questions DESC
	`

	return r.queryUsers(ctx, query)
}

// GetTotalStats returns the number of known users and the total answers given.
func (r *StatsRepository) GetTotalStats(ctx context.Context) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(total_questions), 0) FROM users`

	var users, answers int
	if err := r.db.QueryRow(ctx, query).Scan(&users, &answers); err != nil {
		return 0, 0, fmt.Errorf("get total stats: %w", err)
	}

	return users, answers, nil
}

func (r *StatsRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*entities.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		var user entities.User
		if err := rows.Scan(
			&user.ID,
			&user.ChatID,
			&user.Username,
			&user.FirstName,
			&user.TotalQuestions,
			&user.CorrectAnswers,
			&user.QuizzesCompleted,
			&user.CreatedAt,
			&user.LastActiveAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
