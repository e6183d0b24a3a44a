package mapdetect

import "sort"

// UnknownMap is the sentinel label reported when no catalog entry qualifies
// or the confidence gate fails.
const UnknownMap = "Unknown Map"

// Default thresholds for the confidence gate.
const (
	DefaultConfidenceThreshold = 60
	DefaultHighConfidence      = 80
	DefaultMinWordsRequired    = 3
)

// Phrase is one recognized text region with its OCR confidence (0-100).
type Phrase struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
}

// ScoredMatch is the score a single catalog entry earned for a token set.
type ScoredMatch struct {
	Label string `json:"map"`
	Score int    `json:"score"`
}

// Sentinel returns the single-element ranking used for "no match".
func Sentinel() []ScoredMatch {
	return []ScoredMatch{{Label: UnknownMap, Score: 0}}
}

// BestLabel returns the label of the top match, or UnknownMap when the
// ranking is empty or headed by a zero score.
func BestLabel(matches []ScoredMatch) string {
	if len(matches) == 0 || matches[0].Score == 0 {
		return UnknownMap
	}
	return matches[0].Label
}

// TokenSet is an unordered set of normalized words.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the provided words.
func NewTokenSet(words ...string) TokenSet {
	set := make(TokenSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Contains reports whether word is in the set.
func (s TokenSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
