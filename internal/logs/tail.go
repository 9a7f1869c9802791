package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"brandguardian/internal/config"
	"brandguardian/internal/logging"
)

const (
	serverLogName = "brandguardiand.log"
	maxLineBytes  = 1024 * 1024
)

// ServerLogPath returns the log file written by the server.
func ServerLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, serverLogName)
}

// FindAuditLog returns the newest per-audit log whose name ends with the
// video ID. Audit log names start with a UTC timestamp, so lexical order is
// chronological.
func FindAuditLog(logDir, videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", errors.New("video id is required")
	}
	dir := filepath.Join(logDir, logging.AuditLogDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("no audit logs in %s", dir)
		}
		return "", fmt.Errorf("read audit log dir: %w", err)
	}
	var matches []string
	suffix := "-" + videoID + ".log"
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no audit log for %s in %s", videoID, dir)
	}
	slices.Sort(matches)
	return filepath.Join(dir, matches[len(matches)-1]), nil
}

// TailResult holds lines read and the offset just past them.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail returns the last limit lines of path. A missing file yields an empty
// result. limit <= 0 returns no lines but still reports the end offset.
func Tail(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return TailResult{Offset: info.Size()}, nil
	}

	ring := make([]string, 0, limit)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if len(ring) == limit {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{}, fmt.Errorf("determine log offset: %w", err)
	}
	return TailResult{Lines: slices.Clone(ring), Offset: offset}, nil
}

// ReadFrom returns complete lines appended after offset. A trailing partial
// line is left for the next call. If the file shrank below offset it is read
// from the start.
func ReadFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	result := TailResult{Offset: offset}
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		result.Offset += int64(len(line))
		result.Lines = append(result.Lines, strings.TrimRight(line, "\r\n"))
	}
	return result, nil
}

// Follow calls emit for each line appended to path after offset, polling at
// interval, until ctx ends. It returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := ReadFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range result.Lines {
			emit(line)
		}
		offset = result.Offset

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
