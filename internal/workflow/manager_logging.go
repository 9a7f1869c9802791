package workflow

import (
	"context"
	"log/slog"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
)

// sessionLogger returns the logger for one audit, mirrored into a dedicated
// audit log file when enabled. The returned func closes that file.
func (m *Manager) sessionLogger(ctx context.Context, state auditstate.State) (*slog.Logger, func()) {
	logger := logging.WithContext(ctx, m.logger)
	if m.cfg == nil || !m.cfg.Logging.AuditLogs || m.cfg.Paths.LogDir == "" {
		return logger, func() {}
	}
	teed, auditLog, err := logging.OpenAuditLog(logger, m.cfg.Paths.LogDir, state.SessionID, state.VideoID, m.cfg.Logging.Level)
	if err != nil {
		logging.WarnWithContext(logger, "audit log unavailable", "audit_log_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "audit records only appear in the process log"),
		)
		return logger, func() {}
	}
	teed.Debug("audit log opened", logging.String("path", auditLog.Path))
	return teed, func() { _ = auditLog.Close() }
}
