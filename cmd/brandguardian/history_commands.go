package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"brandguardian/internal/api"
	"brandguardian/internal/auditstate"
	"brandguardian/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored audits",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("audit history is disabled; set history.enabled = true in config.toml")
	}
	store, err := history.Open(cfg.History.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audits",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				records, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				payload := api.FromRecords(records)
				if jsonOutput {
					return writeJSON(cmd, api.AuditListResponse{Audits: payload})
				}
				out := cmd.OutOrStdout()
				if len(payload) == 0 {
					fmt.Fprintln(out, "No audits recorded")
					return nil
				}
				rows := make([][]string, 0, len(payload))
				for _, rec := range payload {
					rows = append(rows, []string{
						rec.SessionID,
						rec.Status,
						strconv.Itoa(rec.IssueCount),
						strconv.Itoa(rec.ErrorCount),
						rec.CreatedAt,
						rec.VideoReference,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{Header: "Session"},
					{Header: "Status"},
					{Header: "Issues", Align: alignRight},
					{Header: "Errors", Align: alignRight},
					{Header: "Created"},
					{Header: "Video", MaxWidth: 48},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of audits to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one stored audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				state, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("audit %s not found", args[0])
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromStateDetail(state))
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Video", statusInfo, state.VideoReference, colorize))
				if !state.CompletedAt.IsZero() {
					fmt.Fprintln(out, renderStatusLine("Completed", statusInfo, api.FormatTime(state.CompletedAt), colorize))
				}
				for _, rec := range state.Stages {
					kind := statusOK
					switch rec.Outcome {
					case auditstate.OutcomeFailed:
						kind = statusError
					case auditstate.OutcomeSkipped:
						kind = statusWarn
					}
					message := string(rec.Outcome)
					if rec.Detail != "" {
						message += ": " + rec.Detail
					}
					fmt.Fprintln(out, renderStatusLine(displayLabel(rec.Stage)+" stage", kind, message, colorize))
				}
				fmt.Fprintln(out)
				renderAuditReport(out, api.FromState(state), state.Errors, colorize)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
