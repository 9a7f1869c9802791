package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"brandguardian/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var videoID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show server or per-audit logs",
		Long: "Prints the tail of the brandguardiand log. With --video the newest\n" +
			"per-audit log for that video ID is shown instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logs.ServerLogPath(cfg)
			if videoID != "" {
				path, err = logs.FindAuditLog(cfg.Paths.LogDir, videoID)
				if err != nil {
					return err
				}
			}

			result, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Lines) == 0 && result.Offset == 0 && !follow {
				fmt.Fprintf(out, "No log output at %s\n", path)
				return nil
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, result.Offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&videoID, "video", "", "Show the per-audit log for this video ID")
	return cmd
}
