package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "yt-dlp")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Command != present {
		t.Fatalf("unexpected present result %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected missing result %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestYtDlpResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "yt-dlp"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	req := YtDlp("")
	if req.Command != "yt-dlp" || !req.Optional {
		t.Fatalf("unexpected requirement %#v", req)
	}
	status := CheckBinaries([]Requirement{req})[0]
	if !status.Available || status.Command != filepath.Join(binDir, "yt-dlp") {
		t.Fatalf("expected yt-dlp resolved on PATH, got %#v", status)
	}
}

func TestCheckBinariesProbesVersion(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	script := "#!/bin/sh\nprintf '\\n2025.09.26\\nextra\\n'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	status := CheckBinaries([]Requirement{{Name: "yt-dlp", Command: bin, VersionArgs: []string{"--version"}}})[0]
	if status.Version != "2025.09.26" {
		t.Fatalf("unexpected version %q", status.Version)
	}

	quiet := filepath.Join(t.TempDir(), "quiet")
	if err := os.WriteFile(quiet, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if got := CheckBinaries([]Requirement{{Name: "quiet", Command: quiet, VersionArgs: []string{"-V"}}})[0]; !got.Available || got.Version != "" {
		t.Fatalf("failing version probe should leave binary available without version: %#v", got)
	}
}
