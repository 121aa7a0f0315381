package entities

import "time"

// SessionState is the lifecycle state of a quiz session.
type SessionState string

const (
	SessionSelecting      SessionState = "selecting"       // questions are being drawn
	SessionAwaitingAnswer SessionState = "awaiting_answer" // a question is armed and waiting
	SessionEvaluating     SessionState = "evaluating"      // an answer or timeout is being applied
	SessionCompleted      SessionState = "completed"       // all questions answered
	SessionAborted        SessionState = "aborted"         // stopped before completion
)

// Outcome records how a single question was resolved.
type Outcome struct {
	QuestionID string        // ID of the question
	Answer     string        // chosen option key, empty when the timer expired
	Correct    bool          // whether the answer was correct
	TimedOut   bool          // whether the question timed out
	Elapsed    time.Duration // time spent on the question
}

// Session represents one user's quiz run. The question sequence is drawn
// once at start and never changes for the lifetime of the run, even if the
// question pool is reloaded underneath it.
type Session struct {
	UserID       int64        // owning Telegram user ID
	Scope        Scope        // country/region filter the run was started with
	Questions    []Question   // fixed sequence drawn at start
	Index        int          // current question index, == len(Questions) when done
	CorrectCount int          // number of correct answers so far
	Outcomes     []Outcome    // one entry per resolved question
	State        SessionState // current lifecycle state
	StartedAt    time.Time    // when the session was created
	AskedAt      time.Time    // when the current question was armed
	Deadline     time.Time    // when the current question expires
}

// NewSession creates a session in the selecting state.
func NewSession(userID int64, scope Scope, questions []Question) *Session {
	return &Session{
		UserID:    userID,
		Scope:     scope,
		Questions: questions,
		State:     SessionSelecting,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, 0, len(questions)),
	}
}

// TotalQuestions returns the number of questions drawn for the run.
func (s *Session) TotalQuestions() int {
	return len(s.Questions)
}

// CurrentQuestion returns the active question, or nil past the end.
func (s *Session) CurrentQuestion() *Question {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Index]
}

// IsActive reports whether the session still accepts answer or timeout events.
func (s *Session) IsActive() bool {
	return s.State == SessionSelecting ||
		s.State == SessionAwaitingAnswer ||
		s.State == SessionEvaluating
}

// IsFinished reports whether the session has run past its last question.
func (s *Session) IsFinished() bool {
	return s.Index >= len(s.Questions)
}

// RecordOutcome appends the outcome for the current question and updates
// the score.
func (s *Session) RecordOutcome(answer string, correct, timedOut bool) {
	q := s.CurrentQuestion()
	if q == nil {
		return
	}
	s.Outcomes = append(s.Outcomes, Outcome{
		QuestionID: q.ID,
		Answer:     answer,
		Correct:    correct,
		TimedOut:   timedOut,
		Elapsed:    time.Since(s.AskedAt),
	})
	if correct {
		s.CorrectCount++
	}
}

// Advance moves the session to the next question.
func (s *Session) Advance() {
	s.Index++
}

// Percentage returns the share of correct answers among resolved questions.
func (s *Session) Percentage() float64 {
	if len(s.Outcomes) == 0 {
		return 0
	}
	return float64(s.CorrectCount) * 100 / float64(len(s.Outcomes))
}
