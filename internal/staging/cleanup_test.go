package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"brandguardian/internal/logging"
)

func TestCleanStaleInvalidInputs(t *testing.T) {
	now := time.Now()
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, now, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
	result := CleanStale(context.Background(), t.TempDir(), 0, now, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Error("expected zero max age to disable the sweep")
	}
}

func TestCleanStaleRemovesOldEntries(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	oldFile := filepath.Join(tmpDir, "vid_1234abcd-session.mp4")
	if err := os.WriteFile(oldFile, []byte("media"), 0o644); err != nil {
		t.Fatalf("write old file: %v", err)
	}
	oldDir := filepath.Join(tmpDir, "vid_1234abcd-session.mp4.part-frag")
	if err := os.Mkdir(oldDir, 0o755); err != nil {
		t.Fatalf("create old dir: %v", err)
	}
	for _, path := range []string{oldFile, oldDir} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("set old time: %v", err)
		}
	}
	recentFile := filepath.Join(tmpDir, "vid_feedbeef-active.mov")
	if err := os.WriteFile(recentFile, []byte("media"), 0o644); err != nil {
		t.Fatalf("write recent file: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, 24*time.Hour, now, logging.NewNop())

	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", result.Removed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	for _, path := range []string{oldFile, oldDir} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", path)
		}
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("recent file should still exist")
	}
}

func TestList(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "a.mp4"), make([]byte, 10), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	sub := filepath.Join(tmpDir, "frag")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "part1"), make([]byte, 5), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}

	entries, err := List(tmpDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	sizes := map[string]int64{}
	for _, e := range entries {
		sizes[e.Name] = e.Size
	}
	if sizes["a.mp4"] != 10 || sizes["frag"] != 5 {
		t.Fatalf("unexpected sizes %v", sizes)
	}

	missing, err := List(filepath.Join(tmpDir, "missing"))
	if err != nil || missing != nil {
		t.Fatalf("expected nil result for missing dir, got %v %v", missing, err)
	}
}
