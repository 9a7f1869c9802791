package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"brandguardian/internal/apiclient"
	"brandguardian/internal/daemonctl"
	"brandguardian/internal/daemonrun"
)

const (
	startWaitTimeout = 30 * time.Second
	stopGracePeriod  = 15 * time.Second
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP audit server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      logLevel,
				SkipPreflight: skipPreflight,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip startup reachability checks")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the audit server in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := apiclient.New(cfg.Server.Bind, cfg.Server.APIToken)
			if err != nil {
				return fmt.Errorf("resolve server address: %w", err)
			}
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, executable, ctx.configPath(), startWaitTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(out, "brandguardiand already running at %s\n", result.BaseURL)
			default:
				fmt.Fprintf(out, "brandguardiand started at %s\n", result.BaseURL)
				fmt.Fprintf(out, "Logs: %s\n", cfg.Paths.LogDir)
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background audit server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := apiclient.New(cfg.Server.Bind, cfg.Server.APIToken)
			if err != nil {
				return fmt.Errorf("resolve server address: %w", err)
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cmd.Context(), client, daemonctl.PIDPath(cfg), stopGracePeriod)
			if errors.Is(err, daemonctl.ErrServerNotRunning) {
				fmt.Fprintln(out, "brandguardiand is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "brandguardiand (pid %d) did not exit in %s and was killed\n", result.PID, stopGracePeriod)
				return nil
			}
			fmt.Fprintf(out, "brandguardiand (pid %d) stopped\n", result.PID)
			return nil
		},
	}
}
