package workflow

import (
	"context"
	"strings"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/services"
)

// Run audits the video at reference, which may be a URL or a local path.
//
// The returned state is always in PhaseDone when err is nil. Extraction,
// retrieval, and judge failures are recorded in the state rather than
// returned.
func (m *Manager) Run(ctx context.Context, reference string) (auditstate.State, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return auditstate.State{}, services.Wrap(services.ErrValidation, "workflow", "run", "video reference is required", nil)
	}
	return m.RunSession(ctx, m.newSessionID(), reference)
}

// RunSession audits reference under a caller-assigned session identifier.
func (m *Manager) RunSession(ctx context.Context, sessionID, reference string) (auditstate.State, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return auditstate.State{}, services.Wrap(services.ErrValidation, "workflow", "run", "video reference is required", nil)
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = m.newSessionID()
	}

	state := auditstate.New(sessionID, reference)
	state.CreatedAt = m.now().UTC()
	ctx = services.WithSessionID(ctx, state.SessionID)
	ctx = services.WithVideoID(ctx, state.VideoID)

	logger, closeLog := m.sessionLogger(ctx, state)
	defer closeLog()

	m.begin()
	logger.Info("audit started",
		logging.String(logging.FieldEventType, "audit_start"),
		logging.String("reference", reference),
	)

	for _, stg := range m.stages {
		state.Phase = stg.phase
		update, err := m.runStage(ctx, logger, stg, state)
		if err != nil {
			m.finish(state, err)
			m.notifyFailure(ctx, logger, state, err)
			return state, err
		}
		state = auditstate.Merge(state, update)
	}

	state.Phase = auditstate.PhaseDone
	state.CompletedAt = m.now().UTC()
	logger.Info("audit completed",
		logging.String(logging.FieldEventType, "audit_complete"),
		logging.String("final_status", string(state.FinalStatus)),
		logging.Int("issues", len(state.ComplianceResults)),
		logging.Int("errors", len(state.Errors)),
		logging.Duration("elapsed", state.CompletedAt.Sub(state.CreatedAt)),
	)

	m.record(ctx, logger, state)
	m.finish(state, nil)
	m.notifyCompleted(ctx, logger, state)
	return state, nil
}
