package testsupport

import (
	"context"
	"testing"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun inserts a run row for tests using the provided store.
func BeginRun(t testing.TB, store *ledger.Store, run ledger.Run) {
	t.Helper()

	if err := store.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("store.BeginRun: %v", err)
	}
}
