package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"brandguardian/internal/config"
	"brandguardian/internal/daemon"
	"brandguardian/internal/daemonctl"
	"brandguardian/internal/history"
	"brandguardian/internal/logging"
	"brandguardian/internal/logs"
	"brandguardian/internal/notifications"
	"brandguardian/internal/workflow"
)

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SkipPreflight disables the startup reachability checks.
	SkipPreflight bool
}

// Run starts the HTTP audit server and blocks until the context is cancelled
// or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := logs.ServerLogPath(cfg)
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := daemonctl.PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	pipeline, err := BuildPipeline(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build audit pipeline", logging.Error(err))
		return err
	}
	defer pipeline.Close()

	managerOpts := []workflow.ManagerOption{workflow.WithNotifier(notifications.NewService(cfg))}
	var daemonOpts []daemon.Option
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DatabasePath)
		if err != nil {
			logger.Error("open audit history", logging.Error(err))
			return err
		}
		defer store.Close()
		managerOpts = append(managerOpts, workflow.WithRecorder(store))
		daemonOpts = append(daemonOpts, daemon.WithHistory(store))
	}

	manager := workflow.NewManager(cfg, pipeline.Stages, logger, managerOpts...)
	if !opts.SkipPreflight {
		// Failed checks are logged individually and the server starts anyway.
		if err := manager.Preflight(signalCtx); err != nil {
			logging.WarnWithContext(logger, "starting with failed preflight checks", "preflight_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify credentials and endpoints in config.toml"),
				logging.String(logging.FieldImpact, "audits that depend on the failing services will fail"),
			)
		}
	}
	d, err := daemon.New(cfg, logger, manager, daemonOpts...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and server.lock_path"),
			logging.String(logging.FieldImpact, "audits cannot be submitted"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("brandguardiand shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ytDlp := cfg.Download.YtDlpBinary
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("yt_dlp_available", binaryAvailable(ytDlp)),
		logging.String("yt_dlp_binary", ytDlp),
		logging.String("search_backend", cfg.Search.Backend),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("embedding_model", cfg.Embedding.Model),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Server.APIToken) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
