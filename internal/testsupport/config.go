package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"brandguardian/internal/config"
)

// ConfigOption adjusts a config produced by NewConfig. root is the temp
// directory all paths live under.
type ConfigOption func(t testing.TB, root string, cfg *config.Config)

// NewConfig returns a config that passes Validate, rooted in a fresh temp
// directory. Azure and model credentials are placeholders, the server binds
// an ephemeral loopback port, and rules live in the memory backend.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	state := filepath.Join(root, "state")

	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(root, "tmp")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.StateDir = state
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.LockPath = filepath.Join(state, "brandguardiand.lock")
	cfg.History.DatabasePath = filepath.Join(state, "history.db")
	cfg.Search.Backend = config.BackendMemory
	cfg.Search.Memory.SnapshotPath = filepath.Join(state, "knowledge.json")

	cfg.VideoIndexer.AccountID = "test-account"
	cfg.VideoIndexer.Location = "trial"
	cfg.VideoIndexer.AccessToken = "test-token"
	cfg.LLM.APIKey = "test"
	cfg.Embedding.APIKey = "test"

	for _, opt := range opts {
		opt(t, root, &cfg)
	}
	return &cfg
}

// WithHistory enables the audit ledger.
func WithHistory() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.History.Enabled = true
	}
}

// WithStubbedBinaries puts no-op executables named names (yt-dlp when empty)
// at the front of PATH for the duration of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"yt-dlp"}
	}
	return func(t testing.TB, root string, _ *config.Config) {
		t.Helper()
		bin := filepath.Join(root, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", bin, err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
