package mapdetect

import (
	"cmp"
	"slices"
	"strings"
)

// Score weights.
const (
	baseScore           = 50
	perWordScore        = 5
	highValueScore      = 15
	superHighValueScore = 30
)

// EntryScore is the full breakdown for one catalog entry.
type EntryScore struct {
	Index          int    `json:"index"`
	Objective      string `json:"objective"`
	Label          string `json:"map"`
	WordsMatched   int    `json:"words_matched"`
	HighValue      int    `json:"high_value"`
	SuperHighValue int    `json:"super_high_value"`
	Score          int    `json:"score"`
	Qualified      bool   `json:"qualified"`
}

// Scorer ranks token sets against a catalog.
type Scorer struct {
	catalog *Catalog
}

// NewScorer builds a scorer over catalog, falling back to DefaultCatalog.
func NewScorer(catalog *Catalog) *Scorer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Scorer{catalog: catalog}
}

// Catalog returns the catalog the scorer consults.
func (s *Scorer) Catalog() *Catalog {
	return s.catalog
}

// Explain evaluates every catalog entry, qualified or not, in catalog order.
func (s *Scorer) Explain(tokens TokenSet) []EntryScore {
	words := tokens.Sorted()
	out := make([]EntryScore, 0, len(s.catalog.entries))
	for _, entry := range s.catalog.entries {
		out = append(out, s.evaluate(entry, words))
	}
	return out
}

// Score returns the qualifying matches ordered by score, highest first. Equal
// scores keep catalog order. When nothing qualifies the result is exactly
// Sentinel(); the slice is never empty.
func (s *Scorer) Score(tokens TokenSet) []ScoredMatch {
	type ranked struct {
		match ScoredMatch
		index int
	}
	words := tokens.Sorted()
	var candidates []ranked
	for _, entry := range s.catalog.entries {
		res := s.evaluate(entry, words)
		if !res.Qualified {
			continue
		}
		candidates = append(candidates, ranked{
			match: ScoredMatch{Label: entry.Label, Score: res.Score},
			index: entry.Index,
		})
	}
	if len(candidates) == 0 {
		return Sentinel()
	}
	slices.SortStableFunc(candidates, func(a, b ranked) int {
		if c := cmp.Compare(b.match.Score, a.match.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	matches := make([]ScoredMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = c.match
	}
	return matches
}

func (s *Scorer) evaluate(entry ObjectiveEntry, words []string) EntryScore {
	res := EntryScore{
		Index:     entry.Index,
		Objective: entry.Objective,
		Label:     entry.Label,
	}
	for _, w := range words {
		if !strings.Contains(entry.lower, w) {
			continue
		}
		res.WordsMatched++
		switch {
		case s.catalog.IsSuperHighValue(w):
			res.SuperHighValue++
		case s.catalog.IsHighValue(w):
			res.HighValue++
		}
	}
	if res.WordsMatched > 1 {
		res.Qualified = true
		res.Score = baseScore +
			perWordScore*res.WordsMatched +
			highValueScore*res.HighValue +
			superHighValueScore*res.SuperHighValue
	}
	return res
}
