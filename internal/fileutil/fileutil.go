package fileutil

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"brandguardian/internal/textutil"
)

const defaultMediaExt = ".mp4"

// ErrTooLarge reports a stream that exceeded the write limit.
var ErrTooLarge = errors.New("stream exceeds size limit")

// MediaExtension returns the lowercase extension of reference, or ".mp4" when
// the reference has none. URL query strings are ignored.
func MediaExtension(reference string) string {
	name := strings.TrimSpace(reference)
	if parsed, err := url.Parse(name); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		name = parsed.Path
	}
	ext := strings.ToLower(path.Ext(filepath.ToSlash(name)))
	if ext == "" || len(ext) > 6 || strings.ContainsAny(ext, "?&=") {
		return defaultMediaExt
	}
	return ext
}

// SessionMediaPath returns the temp location for one session's media:
// <dir>/<videoID>-<sessionID><ext>. Distinct sessions never share a path.
func SessionMediaPath(dir, videoID, sessionID, ext string) string {
	if ext == "" {
		ext = defaultMediaExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := textutil.SanitizeToken(videoID) + "-" + textutil.SanitizeToken(sessionID) + ext
	return filepath.Join(dir, name)
}

// WriteStream copies r into dst, creating parent directories. When limit is
// positive and r yields more than limit bytes, dst is removed and ErrTooLarge
// returned.
func WriteStream(dst string, r io.Reader, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && written > limit {
		err = fmt.Errorf("%w: %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return written, nil
}

// RemoveIfExists deletes path, treating a missing file as success.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
