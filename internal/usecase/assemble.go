package usecase

import (
	"strings"

	"github.com/rivo/uniseg"

	"docqa/internal/domain"
)

// Unit is what a context budget counts.
type Unit string

const (
	// UnitRune counts Unicode code points.
	UnitRune Unit = "rune"
	// UnitGrapheme counts user-perceived characters (extended grapheme clusters).
	UnitGrapheme Unit = "grapheme"
)

// ParseUnit maps a config value onto a Unit; empty means UnitRune.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case "", UnitRune:
		return UnitRune, nil
	case UnitGrapheme:
		return UnitGrapheme, nil
	default:
		return "", domain.InvalidArgument("unknown context unit %q (want %q or %q)", s, UnitRune, UnitGrapheme)
	}
}

// ContextAssembler joins retrieved texts and cuts the result to a budget.
type ContextAssembler struct {
	unit Unit
}

// NewContextAssembler fails with an invalid argument error for an unknown unit.
// An empty unit means UnitRune.
func NewContextAssembler(unit Unit) (*ContextAssembler, error) {
	unit, err := ParseUnit(string(unit))
	if err != nil {
		return nil, err
	}
	return &ContextAssembler{unit: unit}, nil
}

// Assemble writes each result's text followed by a newline, in result order,
// and keeps the first budget characters. It never splits a character, so
// valid UTF-8 input yields valid UTF-8 output.
func (a *ContextAssembler) Assemble(results []domain.ScoredDocument, budget int) (string, error) {
	if budget < 0 {
		return "", domain.InvalidArgument("context budget must be >= 0, got %d", budget)
	}
	if budget == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Document.Text)
		sb.WriteByte('\n')
	}
	return Truncate(sb.String(), budget, a.unit), nil
}

// Truncate returns the longest prefix of s holding at most limit units.
// Any unit other than UnitGrapheme counts runes.
func Truncate(s string, limit int, unit Unit) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		// Every unit spans at least one byte.
		return s
	}
	switch unit {
	case UnitGrapheme:
		rest := s
		state := -1
		for n := 0; n < limit && rest != ""; n++ {
			_, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		}
		return s[:len(s)-len(rest)]
	default:
		n := 0
		for i := range s {
			if n == limit {
				return s[:i]
			}
			n++
		}
		return s
	}
}
