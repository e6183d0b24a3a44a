package testsupport

import (
	"context"
	"testing"

	"mapwatch/internal/config"
	"mapwatch/internal/store"
)

// MustOpenStore opens the configured detection store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedDetections inserts rows in order and returns them with their ids.
func SeedDetections(t testing.TB, st store.Store, rows ...store.Detection) []store.Detection {
	t.Helper()

	out := make([]store.Detection, 0, len(rows))
	for i := range rows {
		d := rows[i]
		if err := st.Insert(context.Background(), &d); err != nil {
			t.Fatalf("store.Insert %d: %v", i, err)
		}
		out = append(out, d)
	}
	return out
}
