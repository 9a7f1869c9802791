package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneAuditLogs removes per-audit log files under logDir older than
// retentionDays. Zero or negative retention keeps everything. It returns the
// number of files removed.
func PruneAuditLogs(logger *slog.Logger, logDir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	dir := filepath.Join(logDir, AuditLogDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "audit log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old audit log remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("audit logs pruned", Int("count", removed), String(FieldEventType, "log_pruned"))
	}
	return removed
}
