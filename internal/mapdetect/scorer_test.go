package mapdetect

import (
	"reflect"
	"testing"
)

func TestDefaultCatalogShape(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 71 {
		t.Fatalf("expected 71 objectives, got %d", c.Len())
	}
	if got := len(c.Labels()); got != 27 {
		t.Fatalf("expected 27 labels, got %d", got)
	}
	for i, e := range c.Entries() {
		if e.Index != i {
			t.Fatalf("entry %d carries index %d", i, e.Index)
		}
		if e.Label == "" {
			t.Fatalf("entry %d has empty label", i)
		}
	}
	if !c.IsSuperHighValue("tower") || !c.IsHighValue("tower") {
		t.Fatal("expected tower in both weight sets")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	entries := c.Entries()
	entries[0].Label = "mutated"
	if c.Entries()[0].Label == "mutated" {
		t.Fatal("Entries exposed internal storage")
	}
}

func TestNewCatalogRejectsEmptyLabel(t *testing.T) {
	_, err := NewCatalog([]ObjectiveEntry{{Objective: "hold the line", Label: " "}}, nil, nil)
	if err == nil {
		t.Fatal("expected error for empty label")
	}
	if _, err := NewCatalog(nil, nil, nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestScoreBifrostGarden(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score(NewTokenSet("capture", "bifrost", "garden", "prepare"))
	if BestLabel(got) != "Royale Palace Bifrost Garden" {
		t.Fatalf("best label = %q", BestLabel(got))
	}
	// capture and prepare are plain, bifrost and garden carry the top weight.
	if got[0].Score != 50+5*4+30*2 {
		t.Fatalf("top score = %d, want 130", got[0].Score)
	}
}

func TestScoreDraculasCastle(t *testing.T) {
	s := NewScorer(nil)
	got := s.Score(NewTokenSet("draculas", "ratatoskr", "castle", "ritual", "final"))
	if got[0].Label != "Central Park Attack" || got[0].Score != 225 {
		t.Fatalf("top match = %+v, want Central Park Attack/225", got[0])
	}
	for _, m := range got[1:] {
		if m.Score >= got[0].Score {
			t.Fatalf("competing match %+v not ranked below leader", m)
		}
	}

	breakdown := s.Explain(NewTokenSet("draculas", "ratatoskr", "castle", "ritual", "final"))
	first := breakdown[0]
	if first.WordsMatched != 5 || first.SuperHighValue != 5 || first.HighValue != 0 {
		t.Fatalf("unexpected breakdown %+v", first)
	}
}

func TestScoreSubstringMatching(t *testing.T) {
	s := NewScorer(nil)
	// "kn" lives inside "Knull" and the bare article "the" is everywhere.
	got := s.Score(NewTokenSet("kn", "the"))
	if got[0].Label != "Symbiotic Surface Attack" {
		t.Fatalf("expected substring hit on Symbiotic Surface, got %+v", got[0])
	}
}

func TestScoreSentinelWhenNothingQualifies(t *testing.T) {
	s := NewScorer(nil)
	for _, tokens := range []TokenSet{{}, NewTokenSet("zzzz"), NewTokenSet("bifrost")} {
		got := s.Score(tokens)
		if !reflect.DeepEqual(got, Sentinel()) {
			t.Fatalf("Score(%v) = %+v, want sentinel", tokens.Sorted(), got)
		}
	}
}

func TestScoreNeverEmpty(t *testing.T) {
	s := NewScorer(nil)
	inputs := [][]string{
		nil,
		{"a"},
		{"the", "of"},
		{"defend", "tower", "yggdrasill"},
		{"spider", "zero", "web", "islands"},
	}
	for _, words := range inputs {
		got := s.Score(NewTokenSet(words...))
		if len(got) == 0 {
			t.Fatalf("Score(%v) returned empty ranking", words)
		}
		for _, m := range got {
			if m.Score < 0 {
				t.Fatalf("negative score %+v", m)
			}
			if m.Score == 0 && m.Label != UnknownMap {
				t.Fatalf("zero score reserved for sentinel, got %+v", m)
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(nil)
	tokens := NewTokenSet("defend", "the", "tower", "capture", "garden", "web")
	first := s.Score(tokens)
	for i := 0; i < 50; i++ {
		if got := s.Score(tokens); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}

func TestScoreTiesKeepDeclarationOrder(t *testing.T) {
	entries := []ObjectiveEntry{
		{Objective: "Hold the north gate", Label: "North"},
		{Objective: "Hold the south gate", Label: "South"},
		{Objective: "Escort the payload", Label: "Payload"},
	}
	c, err := NewCatalog(entries, nil, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got := NewScorer(c).Score(NewTokenSet("hold", "gate"))
	want := []ScoredMatch{{Label: "North", Score: 60}, {Label: "South", Score: 60}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Score() = %+v, want %+v", got, want)
	}

	reversed, err := NewCatalog([]ObjectiveEntry{entries[1], entries[0], entries[2]}, nil, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got = NewScorer(reversed).Score(NewTokenSet("hold", "gate"))
	if got[0].Label != "South" || got[1].Label != "North" {
		t.Fatalf("tie order did not follow declaration order: %+v", got)
	}
}

func TestSuperHighTakesPrecedence(t *testing.T) {
	c, err := NewCatalog(
		[]ObjectiveEntry{{Objective: "Guard the tower gate", Label: "Tower"}},
		[]string{"tower"},
		[]string{"tower", "gate"},
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got := NewScorer(c).Explain(NewTokenSet("tower", "gate"))[0]
	if got.SuperHighValue != 1 || got.HighValue != 1 || got.Score != 50+10+15+30 {
		t.Fatalf("unexpected breakdown %+v", got)
	}
}

func TestWordsMatchedMonotone(t *testing.T) {
	s := NewScorer(nil)
	base := []string{"capture", "the"}
	extra := []string{"garden", "tower", "spider", "k", "defend", "zzz"}
	prev := s.Explain(NewTokenSet(base...))
	words := append([]string{}, base...)
	for _, w := range extra {
		words = append(words, w)
		next := s.Explain(NewTokenSet(words...))
		for i := range next {
			if next[i].WordsMatched < prev[i].WordsMatched {
				t.Fatalf("adding %q lowered entry %d from %d to %d", w, i, prev[i].WordsMatched, next[i].WordsMatched)
			}
		}
		prev = next
	}
}
