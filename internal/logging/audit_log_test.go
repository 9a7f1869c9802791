package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brandguardian/internal/logging"
)

func TestOpenAuditLogTeesToFile(t *testing.T) {
	dir := t.TempDir()
	var baseBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))

	logger, auditLog, err := logging.OpenAuditLog(base, dir, "3f2a9c1e-5b7d", "vid_3f2a9c1e", "info")
	if err != nil {
		t.Fatalf("OpenAuditLog: %v", err)
	}
	logger.Info("audit started", logging.String("reference", "clip.mp4"))
	logger.Debug("suppressed")
	if err := auditLog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if filepath.Dir(auditLog.Path) != filepath.Join(dir, logging.AuditLogDirName) {
		t.Fatalf("unexpected audit log location %s", auditLog.Path)
	}
	if !strings.HasSuffix(auditLog.Path, "-vid_3f2a9c1e.log") {
		t.Fatalf("unexpected audit log name %s", auditLog.Path)
	}
	content, err := os.ReadFile(auditLog.Path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "audit started") || !strings.Contains(text, `"session_id":"3f2a9c1e-5b7d"`) {
		t.Fatalf("unexpected audit log content %s", text)
	}
	if strings.Contains(text, "suppressed") {
		t.Fatalf("debug record leaked into info audit log: %s", text)
	}
	if !strings.Contains(baseBuf.String(), "audit started") {
		t.Fatalf("base logger missed record: %s", baseBuf.String())
	}
}

func TestOpenAuditLogRequiresDirectory(t *testing.T) {
	base := logging.NewNop()
	logger, auditLog, err := logging.OpenAuditLog(base, " ", "s", "v", "info")
	if err == nil {
		t.Fatal("expected error without log directory")
	}
	if logger != base || auditLog != nil {
		t.Fatal("expected base logger and nil audit log on failure")
	}
	if err := auditLog.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
