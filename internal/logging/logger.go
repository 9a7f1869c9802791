package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists sinks: "stdout", "stderr", or file paths. Duplicates are
	// written once. Empty means stdout.
	Outputs []string
	// Development forces source locations on every line.
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	sink, err := openSinks(opts.Outputs)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := opts.Development || level.Level() <= slog.LevelDebug

	if format == FormatJSON {
		return slog.New(newJSONHandler(sink, level, addSource)), nil
	}
	return slog.New(newConsoleHandler(sink, level, addSource)), nil
}

func normalizeFormat(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", FormatConsole, "text":
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("log format: unsupported value %q", value)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
