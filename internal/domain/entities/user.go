package entities

import "time"

// User represents a bot user together with accumulated quiz statistics.
type User struct {
	ID               int64     // Telegram user ID
	ChatID           int64     // private chat ID used for outgoing messages
	Username         string    // Telegram username, may be empty
	FirstName        string    // first name from Telegram profile
	TotalQuestions   int       // questions answered across all quizzes
	CorrectAnswers   int       // correct answers across all quizzes
	QuizzesCompleted int       // completed (non-aborted) quiz runs
	CreatedAt        time.Time // first seen
	LastActiveAt     time.Time // last interaction with the bot
}

func NewUser(id, chatID int64, username, firstName string) *User {
	return &User{
		ID:        id,
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
	}
}

// SuccessRate returns the share of correct answers in percent.
func (u *User) SuccessRate() float64 {
	if u.TotalQuestions == 0 {
		return 0
	}
	return float64(u.CorrectAnswers) * 100 / float64(u.TotalQuestions)
}
