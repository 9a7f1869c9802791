package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AuditLogDirName is the subdirectory of the log directory holding per-audit logs.
const AuditLogDirName = "audits"

// AuditLog is a JSON log file dedicated to one audit session.
type AuditLog struct {
	Path string
	file *os.File
}

// OpenAuditLog creates <logDir>/audits/<timestamp>-<videoID>.log and returns a
// logger that writes to both base and that file. Every record in the file
// carries the session identifier.
func OpenAuditLog(base *slog.Logger, logDir, sessionID, videoID, level string) (*slog.Logger, *AuditLog, error) {
	if strings.TrimSpace(logDir) == "" {
		return base, nil, fmt.Errorf("audit log: log directory not configured")
	}
	dir := filepath.Join(logDir, AuditLogDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return base, nil, fmt.Errorf("audit log: ensure directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", time.Now().UTC().Format("20060102T150405"), videoID)
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return base, nil, fmt.Errorf("audit log: open %s: %w", path, err)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	fileHandler := newSessionHandler(newJSONHandler(file, levelVar, false), sessionID)
	return TeeLogger(base, fileHandler), &AuditLog{Path: path, file: file}, nil
}

// Close flushes and closes the audit log file.
func (a *AuditLog) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
