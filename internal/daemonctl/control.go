package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"brandguardian/internal/apiclient"
	"brandguardian/internal/config"
)

const pollInterval = 200 * time.Millisecond

// ErrServerNotRunning indicates no server answered and no live PID was found.
var ErrServerNotRunning = errors.New("brandguardiand not running")

// PIDPath returns where the server records its process ID.
func PIDPath(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return filepath.Join(cfg.Paths.StateDir, "brandguardiand.pid")
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures server start orchestration state.
type StartResult struct {
	State   StartState
	BaseURL string
}

// Launch starts `<executable> serve` detached from the calling terminal.
func Launch(executablePath, configPath string) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	args := []string{"serve"}
	if cfg := strings.TrimSpace(configPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = detachedAttr()
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch server: %w", err)
	}
	return proc.Process.Release()
}

// WaitForHealthy polls /health until it answers or timeout elapses.
func WaitForHealthy(ctx context.Context, client *apiclient.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		probeCtx, cancel := context.WithTimeout(ctx, time.Second)
		_, err := client.Health(probeCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for server")
	}
	return fmt.Errorf("server failed to start: %w", lastErr)
}

// EnsureStarted launches the server unless one already answers at the
// client's address.
func EnsureStarted(ctx context.Context, client *apiclient.Client, executablePath, configPath string, waitTimeout time.Duration) (StartResult, error) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	_, err := client.Health(probeCtx)
	cancel()
	if err == nil {
		return StartResult{State: StartStateAlreadyRunning, BaseURL: client.BaseURL()}, nil
	}
	if err := Launch(executablePath, configPath); err != nil {
		return StartResult{}, err
	}
	if err := WaitForHealthy(ctx, client, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, BaseURL: client.BaseURL()}, nil
}

// ReadPID parses the PID file. A missing file yields 0 and no error.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q has invalid contents %q", path, value)
	}
	return pid, nil
}

// processAlive reports whether pid exists. EPERM means it exists under
// another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// StopResult captures server stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop sends SIGTERM to the server recorded in pidPath and waits for /health
// to stop answering. After gracePeriod the process is sent SIGKILL and the
// stale PID file removed.
func Stop(ctx context.Context, client *apiclient.Client, pidPath string, gracePeriod time.Duration) (StopResult, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if !processAlive(pid) {
		if pid > 0 {
			_ = os.Remove(pidPath)
		}
		return StopResult{}, ErrServerNotRunning
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return StopResult{}, fmt.Errorf("signal server process %d: %w", pid, err)
	}
	if err := WaitForShutdown(ctx, client, pid, gracePeriod); err == nil {
		return StopResult{PID: pid}, nil
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return StopResult{}, fmt.Errorf("kill server process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return StopResult{}, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	return StopResult{PID: pid, ForcedKill: true}, nil
}

// WaitForShutdown waits for the process to exit and the API to go quiet.
func WaitForShutdown(ctx context.Context, client *apiclient.Client, pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		probeCtx, cancel := context.WithTimeout(ctx, time.Second)
		_, err := client.Health(probeCtx)
		cancel()
		if !processAlive(pid) && err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return fmt.Errorf("server pid %d did not stop within %s", pid, timeout)
}
