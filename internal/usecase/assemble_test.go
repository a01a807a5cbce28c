package usecase

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func scored(texts ...string) []domain.ScoredDocument {
	out := make([]domain.ScoredDocument, len(texts))
	for i, t := range texts {
		out[i] = domain.ScoredDocument{Document: domain.Document{ID: i, Name: t, Text: t}}
	}
	return out
}

func TestContextAssembler_Assemble(t *testing.T) {
	tests := []struct {
		name    string
		unit    Unit
		results []domain.ScoredDocument
		budget  int
		want    string
	}{
		{"truncates single document", UnitRune, scored("Hello world, this is a test"), 10, "Hello worl"},
		{"keeps result order", UnitRune, scored("abc", "de"), 100, "abc\nde\n"},
		{"budget equal to length", UnitRune, scored("abc"), 4, "abc\n"},
		{"cut on separator boundary", UnitRune, scored("abc", "de"), 5, "abc\nd"},
		{"zero budget", UnitRune, scored("abc"), 0, ""},
		{"no results", UnitRune, nil, 10, ""},
		{"multibyte runes", UnitRune, scored("héllo wörld"), 2, "hé"},
		{"combining mark split by rune", UnitRune, scored("e\u0301x"), 1, "e"},
		{"combining mark kept by grapheme", UnitGrapheme, scored("e\u0301x"), 1, "e\u0301"},
		{"flag kept by grapheme", UnitGrapheme, scored("\U0001F1EB\U0001F1F7\U0001F1E9\U0001F1EA"), 1, "\U0001F1EB\U0001F1F7"},
		{"grapheme whole text", UnitGrapheme, scored("ab"), 10, "ab\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewContextAssembler(tt.unit)
			require.NoError(t, err)
			got, err := a.Assemble(tt.results, tt.budget)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestContextAssembler_NegativeBudget(t *testing.T) {
	a, err := NewContextAssembler(UnitRune)
	require.NoError(t, err)
	_, err = a.Assemble(scored("abc"), -1)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidArgument(err))
}

func TestContextAssembler_NeverExceedsBudget(t *testing.T) {
	a, err := NewContextAssembler("")
	require.NoError(t, err)
	results := scored("日本語のテキスト", "emoji 🎉 party", "plain")
	for budget := 0; budget < 40; budget++ {
		got, err := a.Assemble(results, budget)
		require.NoError(t, err)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), budget)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestContextAssembler_Deterministic(t *testing.T) {
	a, err := NewContextAssembler(UnitGrapheme)
	require.NoError(t, err)
	results := scored("one", "two", "three")
	first, err := a.Assemble(results, 9)
	require.NoError(t, err)
	second, err := a.Assemble(results, 9)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, UnitRune, u)

	u, err = ParseUnit("grapheme")
	require.NoError(t, err)
	assert.Equal(t, UnitGrapheme, u)

	_, err = ParseUnit("byte")
	assert.True(t, domain.IsInvalidArgument(err))
}

func TestNewContextAssembler_UnknownUnit(t *testing.T) {
	_, err := NewContextAssembler("byte")
	require.Error(t, err)
	assert.True(t, domain.IsInvalidArgument(err))
}

func TestTruncate_UnknownUnitCountsRunes(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "hé", Truncate("héllo", 2, Unit("byte")))
	})
}
