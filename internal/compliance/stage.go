package compliance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/stage"
)

// StageName identifies the audit stage in audit records.
const StageName = "audit"

// SkipReport is the final report when there is nothing to audit.
const SkipReport = "Audit Skipped because video processing failed (No transcript.)"

// RuleRetriever returns rule passages relevant to a query.
type RuleRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// VerdictJudge produces a verdict from rules and video evidence.
type VerdictJudge interface {
	Judge(ctx context.Context, rules []string, transcript string, ocrText []string, metadata map[string]any) (Verdict, error)
}

// Stage runs retrieval and judging for one audit.
type Stage struct {
	retriever RuleRetriever
	judge     VerdictJudge
	topK      int
	logger    *slog.Logger
	health    func(context.Context) stage.Health
}

// StageOption customizes the stage.
type StageOption func(*Stage)

// WithHealthCheck overrides the readiness probe.
func WithHealthCheck(check func(context.Context) stage.Health) StageOption {
	return func(s *Stage) {
		s.health = check
	}
}

// NewStage constructs the audit stage. topK <= 0 uses 3.
func NewStage(retriever RuleRetriever, judge VerdictJudge, topK int, logger *slog.Logger, opts ...StageOption) *Stage {
	if topK <= 0 {
		topK = 3
	}
	s := &Stage{
		retriever: retriever,
		judge:     judge,
		topK:      topK,
		logger:    logging.NewComponentLogger(logger, StageName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements stage.Handler.
func (s *Stage) Name() string { return StageName }

// Execute audits the extracted text. When extraction did not produce a
// transcript the stage returns a skipped outcome with a FAIL verdict and makes
// no retrieval or judge calls. Retrieval and judge errors become a failed
// outcome recorded in the audit errors.
func (s *Stage) Execute(ctx context.Context, state auditstate.State) auditstate.Update {
	started := time.Now()
	logger := logging.WithContext(ctx, s.logger)

	if !state.Auditable() {
		reason := "no transcript available"
		if !state.Extracted {
			reason = "extraction did not complete"
		}
		attrs := append(logging.DecisionAttrs("audit_precondition", "skip", reason),
			logging.String(logging.FieldErrorHint, "inspect the extraction error for this session"),
			logging.String(logging.FieldImpact, "verdict forced to FAIL"),
		)
		logging.WarnWithContext(logger, "audit skipped", "audit_skipped", attrs...)
		return auditstate.Update{
			Stage:       StageName,
			Outcome:     auditstate.OutcomeSkipped,
			Detail:      reason,
			Duration:    time.Since(started),
			FinalStatus: auditstate.StatusFail,
			FinalReport: auditstate.StringPtr(SkipReport),
		}
	}

	query := RetrievalQuery(state.Transcript, state.OCRText)
	rules, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		logging.ErrorWithContext(logger, "rule retrieval failed", "retrieval_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the search backend configuration and availability"),
		)
		return s.failed(err, started)
	}
	logger.Info("rules retrieved", logging.Int("rules", len(rules)))
	if len(rules) == 0 {
		logging.WarnWithContext(logger, "no rules matched; judging without regulatory context", "rules_empty",
			logging.String(logging.FieldErrorHint, "index rule documents with the index command"),
		)
	}

	verdict, err := s.judge.Judge(ctx, rules, state.Transcript, state.OCRText, state.VideoMetadata)
	if err != nil {
		logging.ErrorWithContext(logger, "judge failed", "judge_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the llm endpoint and model output"),
		)
		return s.failed(err, started)
	}

	logger.Info("audit completed", logging.Args(
		logging.DecisionAttrs("audit_verdict", string(verdict.Status), strings.TrimSpace(verdict.FinalReport))...,
	)...)
	return auditstate.Update{
		Stage:             StageName,
		Outcome:           auditstate.OutcomeCompleted,
		Duration:          time.Since(started),
		FinalStatus:       verdict.Status,
		FinalReport:       auditstate.StringPtr(verdict.FinalReport),
		ComplianceResults: verdict.ComplianceResults,
	}
}

func (s *Stage) failed(err error, started time.Time) auditstate.Update {
	update := stage.FailureUpdate(StageName, err)
	update.Duration = time.Since(started)
	return update
}

// HealthCheck implements stage.Handler.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	switch {
	case s.retriever == nil:
		return stage.Unhealthy(StageName, "knowledge retriever not configured")
	case s.judge == nil:
		return stage.Unhealthy(StageName, "judge not configured")
	case s.health != nil:
		return s.health(ctx)
	default:
		return stage.Healthy(StageName)
	}
}
