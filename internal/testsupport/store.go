package testsupport

import (
	"context"
	"testing"

	"platen/internal/config"
	"platen/internal/history"
)

// MustOpenHistory opens the outcome ledger for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordOutcome persists an outcome record for tests using the provided store.
func RecordOutcome(t testing.TB, store *history.Store, rec history.Record) history.Record {
	t.Helper()

	saved, err := store.RecordOutcome(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.RecordOutcome: %v", err)
	}
	return saved
}
