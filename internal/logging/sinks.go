package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// sink is the combined destination of a logger. color reports whether every
// underlying writer is an interactive terminal.
type sink struct {
	io.Writer
	color bool
}

func openSinks(outputs []string) (sink, error) {
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	seen := make(map[string]bool, len(outputs))
	writers := make([]io.Writer, 0, len(outputs))
	color := true
	for _, raw := range outputs {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "stdout", "-":
			writers = append(writers, os.Stdout)
			color = color && isTerminal(os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
			color = color && isTerminal(os.Stderr)
		default:
			file, err := openLogFile(name)
			if err != nil {
				return sink{}, err
			}
			writers = append(writers, file)
			color = false
		}
	}

	switch len(writers) {
	case 0:
		return sink{Writer: os.Stdout, color: isTerminal(os.Stdout)}, nil
	case 1:
		return sink{Writer: writers[0], color: color}, nil
	default:
		return sink{Writer: io.MultiWriter(writers...), color: color}, nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
