// Package entities contains domain entities used across the application.
package entities

import (
	"sort"
	"strings"
)

// Question represents a single multiple-choice quiz question.
// Options are keyed by short labels ("a".."d"); CorrectAnswer must be
// one of those keys.
type Question struct {
	ID            string            `json:"id"`             // unique ID within a pool
	Text          string            `json:"question"`       // question prompt
	Options       map[string]string `json:"options"`        // option key -> option text
	CorrectAnswer string            `json:"correct_answer"` // key of the correct option
	Explanation   string            `json:"explanation"`    // explanation shown after answering
	Tags          []string          `json:"tags"`           // free-form tags
	Country       string            `json:"-"`              // country the question belongs to
	Region        string            `json:"-"`              // region within the country
}

// OptionKeys returns the option keys in stable sorted order for rendering.
func (q *Question) OptionKeys() []string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsCorrect reports whether the given option key matches the correct answer.
// Comparison is tolerant of case and surrounding whitespace introduced by
// the transport layer.
func (q *Question) IsCorrect(key string) bool {
	return strings.EqualFold(
		strings.TrimSpace(key),
		strings.TrimSpace(q.CorrectAnswer),
	)
}

// Scope filters the question pool for a session: a country, a country with
// a region, or everything when both fields are empty.
type Scope struct {
	Country string
	Region  string
}

// ScopeAny matches every question regardless of country or region.
var ScopeAny = Scope{}

// IsAny reports whether the scope matches every question.
func (s Scope) IsAny() bool {
	return s.Country == "" && s.Region == ""
}

// Matches reports whether the question falls inside the scope.
func (s Scope) Matches(q *Question) bool {
	if s.Country != "" && !strings.EqualFold(s.Country, q.Country) {
		return false
	}
	if s.Region != "" && !strings.EqualFold(s.Region, q.Region) {
		return false
	}
	return true
}

// String returns a human-readable scope label.
func (s Scope) String() string {
	switch {
	case s.IsAny():
		return "any"
	case s.Region == "":
		return s.Country
	default:
		return s.Country + "/" + s.Region
	}
}
