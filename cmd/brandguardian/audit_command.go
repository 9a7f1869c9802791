package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"brandguardian/internal/api"
	"brandguardian/internal/apiclient"
	"brandguardian/internal/auditstate"
	"brandguardian/internal/config"
	"brandguardian/internal/daemonrun"
	"brandguardian/internal/history"
	"brandguardian/internal/workflow"
)

// errViolations is returned with --fail-on-violation when the verdict is not PASS.
var errViolations = errors.New("audit did not pass")

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var verbose bool
	var failOnViolation bool
	var viaServer bool

	cmd := &cobra.Command{
		Use:   "audit [video-url-or-path]",
		Short: "Run a compliance audit on a video",
		Long: "Downloads (or reads) the video, indexes it with Azure Video Indexer, retrieves\n" +
			"relevant rules from the knowledge base, and asks the judge model for a verdict.\n" +
			"Without an argument the configured sample video is audited.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reference := cfg.Workflow.SampleVideoURL
			if len(args) == 1 {
				reference = args[0]
			}
			reference, err = resolveReference(reference)
			if err != nil {
				return err
			}

			logger, err := ctx.logger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			if viaServer {
				resp, err := submitToServer(runCtx, cfg, reference)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				renderAuditReport(out, resp, nil, shouldColorize(out))
				if failOnViolation && resp.Status != string(auditstate.StatusPass) {
					return fmt.Errorf("%w: status %s", errViolations, resp.Status)
				}
				return nil
			}

			state, err := runAudit(runCtx, cfg, logger, reference, func(sessionID string) {
				if jsonOutput {
					return
				}
				errOut := cmd.ErrOrStderr()
				fmt.Fprintf(errOut, "Starting audit session %s\n", sessionID)
				fmt.Fprintf(errOut, "Target: %s\n", reference)
				fmt.Fprintln(errOut, "Indexing can take several minutes...")
			})
			if err != nil {
				return err
			}

			resp := api.FromState(state)
			if jsonOutput {
				if err := writeJSON(cmd, resp); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				renderAuditReport(out, resp, state.Errors, shouldColorize(out))
			}
			if failOnViolation && state.FinalStatus != auditstate.StatusPass {
				return fmt.Errorf("%w: status %s", errViolations, state.FinalStatus)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the audit response as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Stream workflow logs to stderr at the configured level")
	cmd.Flags().BoolVar(&viaServer, "server", false, "Submit to the running brandguardiand instead of auditing in-process")
	cmd.Flags().BoolVar(&failOnViolation, "fail-on-violation", false, "Exit non-zero unless the verdict is PASS")
	return cmd
}

// runAudit wires the pipeline from cfg and runs one session. started is
// invoked with the session ID before the workflow begins.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, reference string, started func(string)) (auditstate.State, error) {
	pipeline, err := daemonrun.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		return auditstate.State{}, err
	}
	defer pipeline.Close()

	var opts []workflow.ManagerOption
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DatabasePath)
		if err != nil {
			return auditstate.State{}, fmt.Errorf("open audit history: %w", err)
		}
		defer store.Close()
		opts = append(opts, workflow.WithRecorder(store))
	}
	manager := workflow.NewManager(cfg, pipeline.Stages, logger, opts...)

	sessionID := uuid.NewString()
	if started != nil {
		started(sessionID)
	}
	return manager.RunSession(ctx, sessionID, reference)
}

// submitToServer sends the audit to the server at cfg.Server.Bind. Local files
// are uploaded; URLs are passed through as video_url.
func submitToServer(ctx context.Context, cfg *config.Config, reference string) (api.AuditResponse, error) {
	client, err := apiclient.New(cfg.Server.Bind, cfg.Server.APIToken)
	if err != nil {
		return api.AuditResponse{}, fmt.Errorf("resolve server address: %w", err)
	}
	var resp api.AuditResponse
	if strings.Contains(reference, "://") {
		resp, err = client.SubmitURL(ctx, reference)
	} else {
		resp, err = client.SubmitFile(ctx, reference)
	}
	if apiclient.IsAPIUnavailable(err) {
		return api.AuditResponse{}, fmt.Errorf("brandguardiand is not reachable at %s; start it with 'brandguardian serve'", client.BaseURL())
	}
	return resp, err
}

// resolveReference keeps URLs as given and turns existing local paths absolute.
func resolveReference(reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", errors.New("a video URL or path is required (no sample_video_url configured)")
	}
	if strings.Contains(reference, "://") {
		return reference, nil
	}
	expanded, err := config.ExpandPath(reference)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("inspect path %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path %q is a directory", expanded)
	}
	return filepath.Abs(expanded)
}
