package stage

import (
	"brandguardian/internal/auditstate"
	"brandguardian/internal/services"
)

// FailureUpdate converts a stage error into an update that appends the
// classified message to the audit errors and forces a FAIL verdict.
func FailureUpdate(name string, err error) auditstate.Update {
	if err == nil {
		err = services.Wrap(services.ErrTransient, name, "execute", "stage reported failure without detail", nil)
	}
	return auditstate.Failed(name, services.Describe(err))
}
