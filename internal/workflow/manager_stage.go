package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/services"
	"brandguardian/internal/stage"
)

func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, stg pipelineStage, state auditstate.State) (update auditstate.Update, err error) {
	stageCtx := services.WithStage(ctx, stg.name)
	stageLogger := logger.With(logging.String(logging.FieldStage, stg.name))
	started := time.Now()

	if stg.handler == nil {
		stageLogger.Warn("missing stage handler",
			logging.String(logging.FieldEventType, "stage_missing"),
			logging.String(logging.FieldErrorHint, "wire every stage before serving audits"),
			logging.String(logging.FieldImpact, "audit recorded as failed"),
		)
		return stage.FailureUpdate(stg.name, services.Wrap(services.ErrConfiguration, stg.name, "execute", "stage handler not configured", nil)), nil
	}

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("phase", string(stg.phase)),
	)

	defer func() {
		if recovered := recover(); recovered != nil {
			err = services.Wrap(nil, stg.name, "execute", "stage panicked", fmt.Errorf("%v", recovered))
			logging.ErrorWithContext(stageLogger, "stage panicked", "stage_panic",
				logging.Any("panic", recovered),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this failure with the audit log attached"),
			)
		}
	}()

	update = stg.handler.Execute(stageCtx, state)
	if update.Stage == "" {
		update.Stage = stg.name
	}
	if update.Duration == 0 {
		update.Duration = time.Since(started)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("outcome", string(update.Outcome)),
		logging.Duration("stage_duration", update.Duration),
	}
	if len(update.Errors) > 0 {
		attrs = append(attrs, logging.Int("errors", len(update.Errors)))
	}
	stageLogger.Info("stage finished", logging.Args(attrs...)...)
	return update, nil
}
