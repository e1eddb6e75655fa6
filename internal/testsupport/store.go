package testsupport

import (
	"testing"

	"meditate/internal/config"
	"meditate/internal/history"
)

// MustOpenHistory opens the history store at cfg.HistoryPath and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
