package stage

import (
	"context"

	"brandguardian/internal/auditstate"
)

// Handler describes the contract the workflow orchestrator needs from each stage.
//
// Execute never returns an error: stage failures are reported through the
// returned update so they accumulate in the audit state.
type Handler interface {
	Name() string
	Execute(context.Context, auditstate.State) auditstate.Update
	HealthCheck(context.Context) Health
}

// Health is a stage's answer to "could an audit run right now".
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Probe turns a pass/fail check into a health function for the named stage.
// A passing check keeps its detail so /status can show what was verified.
func Probe(name string, check func(context.Context) (bool, string)) func(context.Context) Health {
	return func(ctx context.Context) Health {
		ok, detail := check(ctx)
		return Health{Name: name, Ready: ok, Detail: detail}
	}
}
