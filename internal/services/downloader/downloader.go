// Package downloader acquires the source media for an audit.
//
// YouTube references are fetched with yt-dlp, other http(s) URLs with a
// streamed GET, and existing local files are used in place.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"brandguardian/internal/logging"
)

// Source identifies how a reference was resolved.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceHTTP    Source = "http"
	SourceLocal   Source = "local"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ErrUnsupportedReference reports input that is neither a URL nor an existing file.
var ErrUnsupportedReference = errors.New("unsupported video reference")

// Config describes the downloader settings.
type Config struct {
	YtDlpBinary string
	Format      string
	Timeout     time.Duration
}

// Result describes the local media produced by Fetch.
type Result struct {
	Path   string
	Source Source
	// Owned is true when Fetch created the file and the caller must remove it.
	Owned bool
}

// Remove deletes the file when Fetch created it.
func (r Result) Remove() error {
	if !r.Owned || r.Path == "" {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Downloader resolves video references to local files.
type Downloader struct {
	cfg        Config
	httpClient *http.Client
	run        commandRunner
	logger     *slog.Logger
}

// Option customizes the downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the HTTP client used for direct downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithCommandRunner injects a command runner (primarily for tests).
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) Option {
	return func(d *Downloader) {
		if run != nil {
			d.run = run
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// New constructs a downloader.
func New(cfg Config, opts ...Option) *Downloader {
	if strings.TrimSpace(cfg.YtDlpBinary) == "" {
		cfg.YtDlpBinary = "yt-dlp"
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "best"
	}
	d := &Downloader{
		cfg:        cfg,
		httpClient: &http.Client{},
		run:        defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "downloader")
	return d
}

// Classify reports how reference would be fetched.
func Classify(reference string) (Source, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", fmt.Errorf("%w: empty reference", ErrUnsupportedReference)
	}
	if parsed, err := url.Parse(reference); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		if IsYouTube(parsed.Host) {
			return SourceYouTube, nil
		}
		return SourceHTTP, nil
	}
	info, err := os.Stat(reference)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedReference, reference)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnsupportedReference, reference)
	}
	return SourceLocal, nil
}

// IsYouTube reports whether host serves YouTube videos.
func IsYouTube(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com"
}

// Fetch resolves reference to a local file. Remote media is written to dest.
func (d *Downloader) Fetch(ctx context.Context, reference, dest string) (Result, error) {
	source, err := Classify(reference)
	if err != nil {
		return Result{}, err
	}
	if source == SourceLocal {
		return Result{Path: reference, Source: source}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("create download directory: %w", err)
	}
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	d.logger.Info("downloading video", logging.String("source", string(source)), logging.String("reference", reference))
	result := Result{Path: dest, Source: source, Owned: true}
	switch source {
	case SourceYouTube:
		err = d.fetchYouTube(ctx, reference, dest)
	default:
		err = d.fetchHTTP(ctx, reference, dest)
	}
	if err != nil {
		_ = result.Remove()
		return Result{}, err
	}
	if info, statErr := os.Stat(dest); statErr != nil || info.Size() == 0 {
		_ = result.Remove()
		return Result{}, fmt.Errorf("download produced no media at %s", dest)
	}
	d.logger.Info("download complete", logging.String("path", dest), logging.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (d *Downloader) fetchYouTube(ctx context.Context, reference, dest string) error {
	args := []string{
		"--format", d.cfg.Format,
		"--output", dest,
		"--no-playlist",
		"--no-part",
		"--force-overwrites",
		"--extractor-args", "youtube:player_client=android,web",
		"--user-agent", userAgent,
		reference,
	}
	if err := d.run(ctx, d.cfg.YtDlpBinary, args...); err != nil {
		return fmt.Errorf("youtube download failed: %w", err)
	}
	return nil
}

func (d *Downloader) fetchHTTP(ctx context.Context, reference, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return fmt.Errorf("http download: new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http download: unexpected status %s", resp.Status)
	}
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("http download: create file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("http download: write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("http download: close file: %w", err)
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
