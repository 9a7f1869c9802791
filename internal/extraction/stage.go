package extraction

import (
	"context"
	"log/slog"
	"time"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/stage"
)

// StageName identifies the extraction stage in audit records.
const StageName = "extraction"

// Transcriber is the extraction contract the stage depends on.
type Transcriber interface {
	FetchAndTranscribe(ctx context.Context, reference string) (Result, error)
}

// Stage adapts a Transcriber to the workflow.
type Stage struct {
	client Transcriber
	logger *slog.Logger
	health func(context.Context) stage.Health
}

// StageOption customizes the stage.
type StageOption func(*Stage)

// WithHealthCheck overrides the readiness probe.
func WithHealthCheck(check func(context.Context) stage.Health) StageOption {
	return func(s *Stage) {
		s.health = check
	}
}

// NewStage constructs the extraction stage.
func NewStage(client Transcriber, logger *slog.Logger, opts ...StageOption) *Stage {
	s := &Stage{client: client, logger: logging.NewComponentLogger(logger, StageName)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements stage.Handler.
func (s *Stage) Name() string { return StageName }

// Execute runs extraction for the state's reference. On failure the update
// clears transcript and OCR text and forces a FAIL verdict.
func (s *Stage) Execute(ctx context.Context, state auditstate.State) auditstate.Update {
	started := time.Now()
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("extraction started", logging.String("reference", state.VideoReference))

	result, err := s.client.FetchAndTranscribe(ctx, state.VideoReference)
	if err != nil {
		logging.ErrorWithContext(logger, "extraction failed", "extraction_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the video reference and indexing service credentials"),
		)
		update := stage.FailureUpdate(StageName, err)
		update.Extraction = &auditstate.Extraction{OCRText: []string{}}
		update.Duration = time.Since(started)
		return update
	}

	logger.Info("extraction completed", logging.Duration("elapsed", time.Since(started)))
	return auditstate.Update{
		Stage:    StageName,
		Outcome:  auditstate.OutcomeCompleted,
		Duration: time.Since(started),
		Extraction: &auditstate.Extraction{
			Transcript: result.Transcript,
			OCRText:    result.OCRText,
			Metadata:   result.Metadata,
			OK:         true,
		},
	}
}

// HealthCheck implements stage.Handler.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.client == nil {
		return stage.Unhealthy(StageName, "extraction client not configured")
	}
	if s.health != nil {
		return s.health(ctx)
	}
	return stage.Healthy(StageName)
}
