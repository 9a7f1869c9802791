package workflow

import (
	"context"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/stage"
)

// StageSet bundles the concrete handlers the manager orchestrates.
type StageSet struct {
	Extraction stage.Handler
	Audit      stage.Handler
}

// Recorder persists finished audits.
type Recorder interface {
	Save(ctx context.Context, state auditstate.State) error
}

type pipelineStage struct {
	name    string
	phase   auditstate.Phase
	handler stage.Handler
}

func (s StageSet) pipeline() []pipelineStage {
	return []pipelineStage{
		{name: "extraction", phase: auditstate.PhaseExtracting, handler: s.Extraction},
		{name: "audit", phase: auditstate.PhaseAuditing, handler: s.Audit},
	}
}
