package entities

import "time"

// Tally is the finalized result record of a quiz run handed to persistence.
// Completed sessions produce a full tally; aborted sessions produce a partial
// one covering only the questions that were resolved before the stop.
type Tally struct {
	UserID         int64         // owning Telegram user ID
	Scope          Scope         // scope the run was started with
	TotalQuestions int           // number of resolved questions
	CorrectCount   int           // number of correct answers
	Outcomes       []Outcome     // per-question outcome log
	Elapsed        time.Duration // wall time from start to finish
	Aborted        bool          // true when the run was stopped early
}

// NewTally builds a tally from a finished or aborted session.
func NewTally(s *Session) *Tally {
	return &Tally{
		UserID:         s.UserID,
		Scope:          s.Scope,
		TotalQuestions: len(s.Outcomes),
		CorrectCount:   s.CorrectCount,
		Outcomes:       append([]Outcome(nil), s.Outcomes...),
		Elapsed:        time.Since(s.StartedAt),
		Aborted:        s.State == SessionAborted,
	}
}
