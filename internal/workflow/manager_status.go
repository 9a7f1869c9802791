package workflow

import (
	"context"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	ActiveAudits    int
	CompletedAudits int
	FailedAudits    int
	LastError       string
	LastAudit       *auditstate.State
	StageHealth     map[string]stage.Health
}

// Status returns counters, the most recent audit, and stage readiness.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		ActiveAudits:    m.active,
		CompletedAudits: m.completed,
		FailedAudits:    m.failed,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.last != nil {
		last := m.last.Clone()
		summary.LastAudit = &last
	}
	m.mu.RUnlock()

	summary.StageHealth = make(map[string]stage.Health, len(m.stages))
	for _, stg := range m.stages {
		if stg.handler == nil {
			summary.StageHealth[stg.name] = stage.Unhealthy(stg.name, "stage handler not configured")
			continue
		}
		summary.StageHealth[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return summary
}

// Ready reports whether every stage passes its health check.
func (m *Manager) Ready(ctx context.Context) bool {
	for _, health := range m.Status(ctx).StageHealth {
		if !health.Ready {
			return false
		}
	}
	return true
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
}

func (m *Manager) finish(state auditstate.State, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active > 0 {
		m.active--
	}
	if err != nil {
		m.failed++
		m.lastErr = err
		return
	}
	m.completed++
	snapshot := state.Clone()
	m.last = &snapshot
}
