package mapdetect

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var punctuationReplacer = strings.NewReplacer(
	".", "",
	"'", "",
	"-", " ",
)

// CleanText lower-cases text, strips periods and apostrophes, turns hyphens
// into spaces and collapses whitespace.
func CleanText(text string) string {
	// cases.Caser is stateful; build one per call.
	lowered := cases.Lower(language.Und).String(text)
	lowered = punctuationReplacer.Replace(lowered)
	return strings.Join(strings.Fields(lowered), " ")
}

// Normalize joins every phrase's text, cleans it and returns the distinct
// tokens. Confidence is ignored here; gating happens before normalization.
func Normalize(phrases []Phrase) TokenSet {
	if len(phrases) == 0 {
		return TokenSet{}
	}
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		parts = append(parts, p.Text)
	}
	return NewTokenSet(strings.Fields(CleanText(strings.Join(parts, " ")))...)
}
