package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sys/unix"

	"brandguardian/internal/config"
	"brandguardian/internal/deps"
	"brandguardian/internal/services/llm"
)

const (
	llmCheckTimeout     = 30 * time.Second
	networkCheckTimeout = 5 * time.Second
)

func pass(name, detail string) Result { return Result{Name: name, Passed: true, Detail: detail} }

func fail(name, detail string) Result { return Result{Name: name, Detail: detail} }

// CheckLLM sends one JSON-mode completion to the judge endpoint. No retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fail(name, "API key missing")
	}
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		JSONMode:       cfg.JSONMode,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(ctx); err != nil {
		return fail(name, describeNetworkError(err))
	}
	return pass(name, "API reachable")
}

// CheckEndpoint issues a GET against baseURL. Anything below 500 counts as
// reachable, since most Azure endpoints answer 401 without credentials.
func CheckEndpoint(ctx context.Context, name, baseURL string) Result {
	target := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if target == "" {
		return fail(name, "missing url")
	}
	ctx, cancel := context.WithTimeout(ctx, networkCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(name, fmt.Sprintf("invalid url (%v)", err))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fail(name, describeNetworkError(err))
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fail(name, fmt.Sprintf("server error (%d)", resp.StatusCode))
	}
	return pass(name, "Reachable")
}

// CheckPostgres opens a single connection to dsn and pings it.
func CheckPostgres(ctx context.Context, name, dsn string) Result {
	if strings.TrimSpace(dsn) == "" {
		return fail(name, "missing dsn")
	}
	ctx, cancel := context.WithTimeout(ctx, networkCheckTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fail(name, describeNetworkError(err))
	}
	defer conn.Close(context.Background())
	if err := conn.Ping(ctx); err != nil {
		return fail(name, describeNetworkError(err))
	}
	return pass(name, "Connected")
}

// CheckTCP verifies that addr accepts connections.
func CheckTCP(ctx context.Context, name, addr string) Result {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fail(name, "missing address")
	}
	dialer := net.Dialer{Timeout: networkCheckTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fail(name, describeNetworkError(err))
	}
	conn.Close()
	return pass(name, "Listening at "+addr)
}

// CheckDirectoryAccess requires path to be a directory the process can
// read, write, and traverse.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail(name, path+": does not exist")
	case err != nil:
		return fail(name, fmt.Sprintf("%s: stat failed: %v", path, err))
	case !info.IsDir():
		return fail(name, path+": not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, fmt.Sprintf("%s: insufficient permissions: %v", path, err))
	}
	return pass(name, path+": read/write ok")
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{deps.YtDlp(cfg.Download.YtDlpBinary)})
}

func describeNetworkError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out waiting for a response"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timed out connecting"
	default:
		return err.Error()
	}
}
