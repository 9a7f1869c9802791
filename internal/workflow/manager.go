package workflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/config"
	"brandguardian/internal/logging"
	"brandguardian/internal/notifications"
)

// Manager coordinates audit runs across the registered stages.
type Manager struct {
	cfg      *config.Config
	stages   []pipelineStage
	logger   *slog.Logger
	notifier notifications.Service
	recorder Recorder

	newSessionID func() string
	now          func() time.Time

	mu        sync.RWMutex
	active    int
	completed int
	failed    int
	lastErr   error
	last      *auditstate.State
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notifier built from config.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithRecorder stores every finished audit.
func WithRecorder(recorder Recorder) ManagerOption {
	return func(m *Manager) {
		m.recorder = recorder
	}
}

// WithSessionIDs overrides session identifier generation.
func WithSessionIDs(next func() string) ManagerOption {
	return func(m *Manager) {
		if next != nil {
			m.newSessionID = next
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, stages StageSet, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:          cfg,
		stages:       stages.pipeline(),
		logger:       logging.NewComponentLogger(logger, "workflow"),
		notifier:     notifications.NewService(cfg),
		newSessionID: uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
