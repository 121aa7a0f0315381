package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionOptionKeys(t *testing.T) {
	t.Parallel()

	q := Question{Options: map[string]string{"c": "x", "a": "y", "b": "z", "d": "w"}}
	assert.Equal(t, []string{"a", "b", "c", "d"}, q.OptionKeys())
}

func TestQuestionIsCorrect(t *testing.T) {
	t.Parallel()

	q := Question{CorrectAnswer: "b"}

	assert.True(t, q.IsCorrect("b"))
	assert.True(t, q.IsCorrect("B"))
	assert.True(t, q.IsCorrect(" b "))
	assert.False(t, q.IsCorrect("a"))
	assert.False(t, q.IsCorrect(""))
}

func TestScopeMatches(t *testing.T) {
	t.Parallel()

	q := &Question{Country: "france", Region: "bordeaux"}

	tests := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{"any", ScopeAny, true},
		{"country", Scope{Country: "france"}, true},
		{"country case-insensitive", Scope{Country: "France"}, true},
		{"country and region", Scope{Country: "france", Region: "bordeaux"}, true},
		{"wrong country", Scope{Country: "italy"}, false},
		{"wrong region", Scope{Country: "france", Region: "burgundy"}, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.scope.Matches(q))
		})
	}
}

func TestScopeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "any", ScopeAny.String())
	assert.Equal(t, "france", Scope{Country: "france"}.String())
	assert.Equal(t, "france/bordeaux", Scope{Country: "france", Region: "bordeaux"}.String())
}
