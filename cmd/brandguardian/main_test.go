package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"brandguardian/internal/api"
	"brandguardian/internal/auditstate"
	"brandguardian/internal/config"
	"brandguardian/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	requireContains(t, out, "AZURE_VI_ACCOUNT_ID")
	requireContains(t, out, "HUGGINGFACEHUB_API_TOKEN")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	requireContains(t, string(data), "[video_indexer]")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+path)
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowMasksCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "****")
	requireContains(t, out, "test-account")

	revealed, _, err := runCLI(t, []string{"config", "show", "--reveal"}, path)
	if err != nil {
		t.Fatalf("config show --reveal: %v", err)
	}
	if strings.Contains(revealed, "****") {
		t.Fatalf("expected clear-text credentials, got %q", revealed)
	}
}

func TestConfigValidateReportsProblems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Search.Backend = "bogus"
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "search.backend")
	if strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected success output %q", out)
	}
}

func TestStatusOfflineShowsConfiguration(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"status", "--offline"}, path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "[OK] all required settings present")
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "== Server ==")
	requireContains(t, out, "not running")
	requireContains(t, out, "Staged media")
	if strings.Contains(out, "Connectivity") {
		t.Fatalf("offline status should skip connectivity checks: %q", out)
	}
}

func TestHistoryCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	path := writeTestConfig(t, cfg)

	store := testsupport.MustOpenHistory(t, cfg)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := auditstate.New("session-1", "https://youtu.be/xTpv9lc_qMw")
	state.VideoID = auditstate.VideoIDForSession("session-1")
	state.CreatedAt = created
	state.CompletedAt = created.Add(time.Minute)
	state.Phase = auditstate.PhaseDone
	state.FinalStatus = auditstate.StatusFail
	state.FinalReport = "The ad makes an unsupported health claim."
	state.ComplianceResults = []auditstate.ComplianceIssue{{
		Category: "claim validation", Severity: "critical", Description: "Claims to cure colds", Timestamp: "00:12",
	}}
	state.Stages = []auditstate.StageRecord{
		{Stage: "extraction", Outcome: auditstate.OutcomeCompleted},
		{Stage: "audit", Outcome: auditstate.OutcomeCompleted, Detail: "1 issue"},
	}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list"}, path)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "session-1")
	requireContains(t, out, "FAIL")

	out, _, err = runCLI(t, []string{"history", "show", "session-1"}, path)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Extraction stage")
	requireContains(t, out, "completed: 1 issue")
	requireContains(t, out, "Violations detected: 1 issue")
	requireContains(t, out, "Claim Validation")
	requireContains(t, out, "The ad makes an unsupported health claim.")

	if _, _, err := runCLI(t, []string{"history", "show", "missing"}, path); err == nil {
		t.Fatal("expected error for unknown session")
	}

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, path)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	requireContains(t, out, `"session_id": "session-1"`)
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"history", "list"}, path)
	if err == nil {
		t.Fatal("expected error when history is disabled")
	}
	requireContains(t, err.Error(), "history is disabled")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	t.Setenv("BRANDGUARDIAN_NTFY_TOPIC", "")
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"test-notify"}, path)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestRenderAuditReport(t *testing.T) {
	var buf bytes.Buffer
	renderAuditReport(&buf, api.AuditResponse{
		SessionID:   "abc",
		VideoID:     "vid_abc",
		Status:      "FAIL",
		FinalReport: "Two problems found.",
		ComplianceResults: []api.ComplianceIssue{
			{Category: "missing disclosure", Severity: "warning", Description: "No #ad tag"},
			{Category: "claim validation", Severity: "critical", Description: "Guaranteed results", Timestamp: "00:30"},
		},
	}, []string{"ocr unavailable"}, false)

	out := buf.String()
	requireContains(t, out, "== Compliance Audit Report ==")
	requireContains(t, out, "[ERROR] FAIL")
	requireContains(t, out, "Violations detected: 2 issues")
	requireContains(t, out, "Missing Disclosure")
	requireContains(t, out, "CRITICAL")
	requireContains(t, out, "[FINAL SUMMARY]")
	requireContains(t, out, "Two problems found.")
	requireContains(t, out, "- ocr unavailable")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI codes without colorize: %q", out)
	}
}

func TestRenderAuditReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderAuditReport(&buf, api.AuditResponse{SessionID: "abc", Status: "PASS"}, nil, false)
	out := buf.String()
	requireContains(t, out, "Violations detected: 0 issues")
	requireContains(t, out, "(no report)")
	if strings.Contains(out, "Errors:") {
		t.Fatalf("unexpected errors block: %q", out)
	}
}

func TestResolveReference(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "ad.mp4")
	testsupport.WriteFile(t, video, 16)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "url", input: " https://youtu.be/xTpv9lc_qMw ", want: "https://youtu.be/xTpv9lc_qMw"},
		{name: "local file", input: video, want: video},
		{name: "empty", input: "  ", wantErr: true},
		{name: "directory", input: dir, wantErr: true},
		{name: "missing", input: filepath.Join(dir, "nope.mp4"), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveReference(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveReference: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestAuditViaServerReportsUnreachable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Bind = "127.0.0.1:1"
	path := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"audit", "--server", "https://youtu.be/xTpv9lc_qMw"}, path)
	if err == nil {
		t.Fatal("expected error when server is not running")
	}
	requireContains(t, err.Error(), "not reachable")
}

func TestStopWhenNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Bind = "127.0.0.1:1"
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"stop"}, path)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "brandguardiand is not running")
}

func TestLogsCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"logs"}, path)
	if err != nil {
		t.Fatalf("logs without file: %v", err)
	}
	requireContains(t, out, "No log output")

	logPath := filepath.Join(cfg.Paths.LogDir, "brandguardiand.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs", "-n", "2"}, path)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("expected only the last two lines, got %q", out)
	}
	requireContains(t, out, "second\nthird")

	auditLog := filepath.Join(cfg.Paths.LogDir, "audits", "20260301T120000-vid_session1.log")
	testsupport.WriteFile(t, auditLog, 1)
	if err := os.WriteFile(auditLog, []byte("{\"msg\":\"audit complete\"}\n"), 0o644); err != nil {
		t.Fatalf("write audit log: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs", "--video", "vid_session1"}, path)
	if err != nil {
		t.Fatalf("logs --video: %v", err)
	}
	requireContains(t, out, "audit complete")
}
