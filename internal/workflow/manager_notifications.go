package workflow

import (
	"context"
	"errors"
	"log/slog"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/notifications"
)

func (m *Manager) record(ctx context.Context, logger *slog.Logger, state auditstate.State) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Save(ctx, state); err != nil {
		logging.WarnWithContext(logger, "audit history save failed", "history_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.database_path permissions"),
			logging.String(logging.FieldImpact, "audit will not appear in history"),
		)
	}
}

func (m *Manager) notifyCompleted(ctx context.Context, logger *slog.Logger, state auditstate.State) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventAuditCompleted, notifications.Payload{
		"sessionID": state.SessionID,
		"reference": state.VideoReference,
		"status":    string(state.FinalStatus),
		"issues":    len(state.ComplianceResults),
	}); err != nil {
		m.logNotifyError(logger, "audit completion notification failed", err)
	}
}

func (m *Manager) notifyFailure(ctx context.Context, logger *slog.Logger, state auditstate.State, runErr error) {
	if m.notifier == nil || runErr == nil {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": "audit " + state.VideoID,
		"error":   runErr,
	}); err != nil {
		m.logNotifyError(logger, "audit failure notification failed", err)
	}
}

func (m *Manager) logNotifyError(logger *slog.Logger, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Debug("request cancelled, notification skipped")
		return
	}
	logger.Debug(msg, logging.Error(err))
}
