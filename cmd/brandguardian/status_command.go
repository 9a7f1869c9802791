package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"brandguardian/internal/apiclient"
	"brandguardian/internal/config"
	"brandguardian/internal/preflight"
	"brandguardian/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:         "status",
		Short:       "Show configuration, dependency, and service readiness",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			cfg, path, exists, err := config.Parse(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, fmt.Sprintf("%s (exists: %s)", path, yesNo(exists)), colorize))
			if verr := cfg.Validate(); verr != nil {
				fmt.Fprintln(out, renderStatusLine("Validation", statusError, verr.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Validation", statusOK, "all required settings present", colorize))
			}
			for _, result := range preflight.Summaries(cfg) {
				fmt.Fprintln(out, renderStatusLine(result.Name, textKind(result.Passed, statusWarn), result.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				detail := dep.Command
				if dep.Version != "" {
					detail = fmt.Sprintf("%s (%s)", dep.Command, dep.Version)
				}
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
					detail = dep.Detail
				}
				fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Server", colorize) {
				fmt.Fprintln(out, line)
			}
			renderServerStatus(cmd.Context(), out, cfg, colorize)

			if offline {
				return nil
			}
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Connectivity", colorize) {
				fmt.Fprintln(out, line)
			}
			checkCtx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			for _, result := range preflight.RunAll(checkCtx, cfg) {
				fmt.Fprintln(out, renderStatusLine(result.Name, textKind(result.Passed, statusError), result.Detail, colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network reachability checks")
	return cmd
}

func renderServerStatus(ctx context.Context, out io.Writer, cfg *config.Config, colorize bool) {
	client, err := apiclient.New(cfg.Server.Bind, cfg.Server.APIToken)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("brandguardiand", statusError, err.Error(), colorize))
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	health, err := client.Health(probeCtx)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("brandguardiand", statusWarn, "not running at "+client.BaseURL(), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("brandguardiand", statusOK, fmt.Sprintf("%s (%s)", health.Status, client.BaseURL()), colorize))
		if status, err := client.Status(probeCtx); err == nil {
			wf := status.Workflow
			fmt.Fprintln(out, renderStatusLine("Audits", statusInfo,
				fmt.Sprintf("%d active, %d completed, %d failed", wf.ActiveAudits, wf.CompletedAudits, wf.FailedAudits), colorize))
		}
	}

	staged, err := staging.List(cfg.Paths.TempDir)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Staged media", statusWarn, err.Error(), colorize))
		return
	}
	var total int64
	for _, entry := range staged {
		total += entry.Size
	}
	fmt.Fprintln(out, renderStatusLine("Staged media", statusInfo,
		fmt.Sprintf("%d in %s (%s)", len(staged), cfg.Paths.TempDir, humanize.IBytes(uint64(total))), colorize))
}

// textKind maps a pass/fail result to a status kind, using failed for failures.
func textKind(passed bool, failed statusKind) statusKind {
	if passed {
		return statusOK
	}
	return failed
}
