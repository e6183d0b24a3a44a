package mapdetect

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ObjectiveEntry maps one known objective phrase to a map label. Index is
// the entry's position in its catalog and breaks score ties.
type ObjectiveEntry struct {
	Index     int    `json:"index"`
	Objective string `json:"objective"`
	Label     string `json:"map"`

	lower string
}

// Catalog is the immutable, ordered objective table plus the two keyword
// weight sets. A Catalog is safe for concurrent use.
type Catalog struct {
	entries   []ObjectiveEntry
	superHigh map[string]struct{}
	high      map[string]struct{}
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(defaultObjectives, defaultSuperHighValue, defaultHighValue)
	if err != nil {
		panic(fmt.Sprintf("mapdetect: invalid built-in catalog: %v", err))
	}
	return c
})

// DefaultCatalog returns the built-in Marvel Rivals objective catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// NewCatalog validates entries and assigns declaration indexes. Entry order
// is preserved exactly; any Index on the input is ignored.
func NewCatalog(entries []ObjectiveEntry, superHigh, high []string) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog requires at least one objective")
	}
	c := &Catalog{
		entries:   make([]ObjectiveEntry, 0, len(entries)),
		superHigh: wordSet(superHigh),
		high:      wordSet(high),
	}
	for i, e := range entries {
		objective := strings.TrimSpace(e.Objective)
		label := strings.TrimSpace(e.Label)
		if objective == "" {
			return nil, fmt.Errorf("catalog entry %d: objective text is empty", i)
		}
		if label == "" {
			return nil, fmt.Errorf("catalog entry %d (%q): map label is empty", i, objective)
		}
		c.entries = append(c.entries, ObjectiveEntry{
			Index:     i,
			Objective: objective,
			Label:     label,
			lower:     strings.ToLower(objective),
		})
	}
	return c, nil
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Len returns the number of objective entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in declaration order.
func (c *Catalog) Entries() []ObjectiveEntry {
	out := make([]ObjectiveEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Labels returns the distinct map labels in first-declared order.
func (c *Catalog) Labels() []string {
	seen := make(map[string]struct{}, len(c.entries))
	labels := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if _, ok := seen[e.Label]; ok {
			continue
		}
		seen[e.Label] = struct{}{}
		labels = append(labels, e.Label)
	}
	return labels
}

// IsSuperHighValue reports whether word carries the top keyword weight.
func (c *Catalog) IsSuperHighValue(word string) bool {
	_, ok := c.superHigh[word]
	return ok
}

// IsHighValue reports whether word is in the high-value set. Words in both
// sets are scored as super-high value by the scorer.
func (c *Catalog) IsHighValue(word string) bool {
	_, ok := c.high[word]
	return ok
}
