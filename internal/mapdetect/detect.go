package mapdetect

import (
	"fmt"
	"strings"
)

// Thresholds controls the confidence gate. Confidence drops phrases outright;
// HighConfidence and MinWords decide whether enough text survived to score.
type Thresholds struct {
	Confidence     int
	HighConfidence int
	MinWords       int
}

// DefaultThresholds returns the tuned gate values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Confidence:     DefaultConfidenceThreshold,
		HighConfidence: DefaultHighConfidence,
		MinWords:       DefaultMinWordsRequired,
	}
}

// Validate reports the first out-of-range threshold.
func (t Thresholds) Validate() error {
	if t.Confidence < 0 || t.Confidence > 100 {
		return fmt.Errorf("confidence threshold %d outside [0,100]", t.Confidence)
	}
	if t.HighConfidence < 0 || t.HighConfidence > 100 {
		return fmt.Errorf("high confidence threshold %d outside [0,100]", t.HighConfidence)
	}
	if t.MinWords < 1 {
		return fmt.Errorf("min words %d must be at least 1", t.MinWords)
	}
	return nil
}

// Result is the outcome of one detection attempt.
type Result struct {
	Best           string        `json:"map"`
	Matches        []ScoredMatch `json:"matches"`
	Kept           []Phrase      `json:"phrases"`
	Tokens         []string      `json:"tokens,omitempty"`
	HighConfidence int           `json:"high_confidence"`
	Gated          bool          `json:"gated"`
}

// Top returns at most n leading matches. A negative n yields none.
func (r Result) Top(n int) []ScoredMatch {
	if n < 0 {
		n = 0
	}
	if n >= len(r.Matches) {
		return r.Matches
	}
	return r.Matches[:n]
}

// Detector applies the confidence gate and scores what survives.
type Detector struct {
	scorer     *Scorer
	thresholds Thresholds
}

// NewDetector builds a detector. A nil scorer uses the default catalog.
func NewDetector(scorer *Scorer, thresholds Thresholds) *Detector {
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	return &Detector{scorer: scorer, thresholds: thresholds}
}

// Thresholds returns the gate configuration.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Scorer returns the underlying scorer.
func (d *Detector) Scorer() *Scorer {
	return d.scorer
}

// Filter drops phrases below the confidence threshold and phrases with no
// visible text. Order is preserved.
func (d *Detector) Filter(phrases []Phrase) []Phrase {
	kept := make([]Phrase, 0, len(phrases))
	for _, p := range phrases {
		if p.Confidence < d.thresholds.Confidence {
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Detect filters phrases, applies the high-confidence gate and ranks the
// catalog. A gated attempt never reaches the scorer.
func (d *Detector) Detect(phrases []Phrase) Result {
	kept := d.Filter(phrases)
	high := 0
	for _, p := range kept {
		if p.Confidence >= d.thresholds.HighConfidence {
			high++
		}
	}
	res := Result{Kept: kept, HighConfidence: high}
	if high < d.thresholds.MinWords {
		res.Gated = true
		res.Matches = Sentinel()
		res.Best = UnknownMap
		return res
	}
	tokens := Normalize(kept)
	res.Tokens = tokens.Sorted()
	res.Matches = d.scorer.Score(tokens)
	res.Best = BestLabel(res.Matches)
	return res
}
