package testsupport

import (
	"testing"

	"brandguardian/internal/config"
	"brandguardian/internal/history"
)

// MustOpenHistory opens the audit ledger configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.DatabasePath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
