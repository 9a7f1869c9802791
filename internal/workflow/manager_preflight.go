package workflow

import (
	"context"
	"fmt"
	"strings"

	"brandguardian/internal/logging"
	"brandguardian/internal/preflight"
)

// Preflight runs the readiness checks for the configured services and logs
// each outcome. It returns an error describing every failed check.
func (m *Manager) Preflight(ctx context.Context) error {
	results := preflight.RunAll(ctx, m.cfg)
	var failures []string
	for _, r := range results {
		if r.Passed {
			m.logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		m.logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the server"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) > 0 {
		return fmt.Errorf("preflight checks failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
