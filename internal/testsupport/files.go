package testsupport

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes, standing
// in for a downloaded or uploaded video. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := io.CopyN(f, fakeMedia{}, size); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// fakeMedia yields an endless MP4-looking byte stream.
type fakeMedia struct{}

func (fakeMedia) Read(p []byte) (int, error) {
	const pattern = "\x00\x00\x00\x18ftypmp42"
	for i := range p {
		p[i] = pattern[i%len(pattern)]
	}
	return len(p), nil
}
