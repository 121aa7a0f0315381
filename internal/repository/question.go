package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okuznetsov/wine-quiz-bot/internal/domain/entities"
)

var (
	// ErrEmptyPool is returned when loading yields no usable questions at all.
	ErrEmptyPool = errors.New("question pool is empty")
	// ErrReloadFailed is returned when a reload produced no usable questions;
	// the previously loaded pool is kept in that case.
	ErrReloadFailed = errors.New("reload produced no usable questions, keeping previous pool")
)

// ValidationError describes one malformed question record that was skipped
// during load. It is reported as a warning, never as a fatal error.
type ValidationError struct {
	File   string // source file the record came from
	Index  int    // zero-based record index within the file
	Reason string // why the record was rejected
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s[%d]: %s", e.File, e.Index, e.Reason)
}

// Source describes one question file to load: which country and region its
// questions belong to and where the file lives on disk.
type Source struct {
	Country string
	Region  string
	File    string
}

// QuestionRepository holds the validated in-memory question pool, grouped by
// country and region. Reload swaps the pool atomically, so sessions that
// captured a draw before the swap keep their snapshot.
type QuestionRepository struct {
	sources []Source

	mu        sync.RWMutex
	questions []entities.Question

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewQuestionRepository loads all sources and returns the repository together
// with per-record validation warnings. It fails only when not a single usable
// question could be loaded.
func NewQuestionRepository(sources []Source) (*QuestionRepository, []*ValidationError, error) {
	r := &QuestionRepository{
		sources: sources,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	questions, warnings := loadSources(sources)
	if len(questions) == 0 {
		return nil, warnings, ErrEmptyPool
	}
	r.questions = questions

	return r, warnings, nil
}

// Reload re-reads every source file and atomically replaces the in-memory
// pool. When validation yields zero usable questions the previous pool is
// retained and ErrReloadFailed is returned, so a transient bad file can
// never leave the store empty.
func (r *QuestionRepository) Reload() ([]*ValidationError, error) {
	questions, warnings := loadSources(r.sources)
	if len(questions) == 0 {
		return warnings, ErrReloadFailed
	}

	r.mu.Lock()
	r.questions = questions
	r.mu.Unlock()

	return warnings, nil
}

// ForScope returns a copy of all questions matching the scope.
func (r *QuestionRepository) ForScope(scope entities.Scope) []entities.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entities.Question
	for i := range r.questions {
		if scope.Matches(&r.questions[i]) {
			out = append(out, r.questions[i])
		}
	}
	return out
}

// Count returns the number of questions available for the scope.
func (r *QuestionRepository) Count(scope entities.Scope) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for i := range r.questions {
		if scope.Matches(&r.questions[i]) {
			n++
		}
	}
	return n
}

// Draw returns up to count questions from the scope, chosen without
// replacement and shuffled. If count exceeds the pool size the whole pool is
// returned in randomized order. A non-nil rng makes the draw reproducible;
// otherwise the repository's own time-seeded source is used.
func (r *QuestionRepository) Draw(scope entities.Scope, count int, rng *rand.Rand) []entities.Question {
	pool := r.ForScope(scope)
	if count <= 0 || len(pool) == 0 {
		return nil
	}

	shuffle := func(n int, swap func(i, j int)) {
		if rng != nil {
			rng.Shuffle(n, swap)
			return
		}
		r.rngMu.Lock()
		r.rng.Shuffle(n, swap)
		r.rngMu.Unlock()
	}

	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if count >= len(pool) {
		return pool
	}
	return pool[:count]
}

// loadSources reads and validates every source file, skipping malformed
// records and collecting a warning for each.
func loadSources(sources []Source) ([]entities.Question, []*ValidationError) {
	var (
		questions []entities.Question
		warnings  []*ValidationError
		seen      = make(map[string]struct{})
	)

	for _, src := range sources {
		data, err := os.ReadFile(src.File)
		if err != nil {
			warnings = append(warnings, &ValidationError{
				File:   filepath.Base(src.File),
				Index:  -1,
				Reason: fmt.Sprintf("read file: %v", err),
			})
			continue
		}

		var records []entities.Question
		if err := json.Unmarshal(data, &records); err != nil {
			warnings = append(warnings, &ValidationError{
				File:   filepath.Base(src.File),
				Index:  -1,
				Reason: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		for i := range records {
			q := records[i]
			q.Country = src.Country
			q.Region = src.Region

			if reason, ok := normalizeQuestion(&q); !ok {
				warnings = append(warnings, &ValidationError{
					File:   filepath.Base(src.File),
					Index:  i,
					Reason: reason,
				})
				continue
			}

			if _, dup := seen[q.ID]; dup {
				warnings = append(warnings, &ValidationError{
					File:   filepath.Base(src.File),
					Index:  i,
					Reason: fmt.Sprintf("duplicate question id %q", q.ID),
				})
				continue
			}
			seen[q.ID] = struct{}{}

			questions = append(questions, q)
		}
	}

	return questions, warnings
}

// normalizeQuestion trims and lowercases keys in place and checks the record
// invariants. It returns a rejection reason when the record is unusable.
func normalizeQuestion(q *entities.Question) (string, bool) {
	q.ID = strings.TrimSpace(q.ID)
	q.Text = strings.TrimSpace(q.Text)
	q.CorrectAnswer = strings.ToLower(strings.TrimSpace(q.CorrectAnswer))

	if q.ID == "" {
		return "missing id", false
	}
	if q.Text == "" {
		return "missing question text", false
	}

	options := make(map[string]string, len(q.Options))
	for key, text := range q.Options {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || strings.TrimSpace(text) == "" {
			return "empty option key or text", false
		}
		options[key] = strings.TrimSpace(text)
	}
	q.Options = options

	if len(q.Options) < 2 {
		return "fewer than two options", false
	}
	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return fmt.Sprintf("correct answer %q is not an option key", q.CorrectAnswer), false
	}

	return "", true
}
