package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/config"
	"brandguardian/internal/deps"
	"brandguardian/internal/history"
	"brandguardian/internal/logging"
	"brandguardian/internal/preflight"
	"brandguardian/internal/staging"
	"brandguardian/internal/workflow"
)

// Auditor runs audits and reports workflow diagnostics.
type Auditor interface {
	RunSession(ctx context.Context, sessionID, reference string) (auditstate.State, error)
	Status(ctx context.Context) workflow.StatusSummary
}

// HistoryReader exposes stored audits.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
	Get(ctx context.Context, sessionID string) (auditstate.State, error)
	Path() string
}

// Daemon owns the HTTP API lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	auditor      Auditor
	history      HistoryReader
	newSessionID func() string

	lockPath string
	lock     *flock.Flock

	mu     sync.Mutex
	server *apiServer
	cancel context.CancelFunc

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Bind         string
	Workflow     workflow.StatusSummary
	LockFilePath string
	HistoryPath  string
	Dependencies []deps.Status
}

// Option customizes the daemon.
type Option func(*Daemon)

// WithHistory exposes stored audits through the API.
func WithHistory(reader HistoryReader) Option {
	return func(d *Daemon) {
		d.history = reader
	}
}

// WithSessionIDs overrides session ID generation for uploaded audits.
func WithSessionIDs(next func() string) Option {
	return func(d *Daemon) {
		if next != nil {
			d.newSessionID = next
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, auditor Auditor, opts ...Option) (*Daemon, error) {
	if cfg == nil || auditor == nil {
		return nil, errors.New("daemon requires config and auditor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := strings.TrimSpace(cfg.Server.LockPath)
	if lockPath == "" {
		lockPath = filepath.Join(cfg.Paths.StateDir, "brandguardiand.lock")
	}
	d := &Daemon{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		auditor:      auditor,
		newSessionID: uuid.NewString,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the instance lock, prunes expired audit logs, and starts
// serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another brandguardiand instance is already running")
	}

	now := time.Now()
	if d.cfg.Logging.AuditLogs {
		logging.PruneAuditLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, now)
	}
	if hours := d.cfg.Paths.StaleTempHours; hours > 0 {
		staging.CleanStale(ctx, d.cfg.Paths.TempDir, time.Duration(hours)*time.Hour, now, d.logger)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	server := newAPIServer(d.cfg, d, d.logger)
	if err := server.start(serveCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.server = server
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("brandguardiand started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", server.addr()),
	)
	return nil
}

// Stop shuts the HTTP API down and releases the instance lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.server = nil
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("brandguardiand stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr returns the bound listener address, or "" when not serving.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Bind:         d.Addr(),
		Workflow:     d.auditor.Status(ctx),
		LockFilePath: d.lockPath,
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
	if status.Bind == "" {
		status.Bind = d.cfg.Server.Bind
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	return status
}
