package workflow_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"brandguardian/internal/logging"
	"brandguardian/internal/testsupport"
	"brandguardian/internal/workflow"
)

func TestPreflightListsEveryFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.VideoIndexer.APIBaseURL = ""
	cfg.LLM.APIKey = ""
	if err := os.MkdirAll(cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}

	mgr := workflow.NewManager(cfg, workflow.StageSet{}, logging.NewNop())
	err := mgr.Preflight(context.Background())
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	msg := err.Error()
	for _, want := range []string{"Temp directory", "Video Indexer API: missing url", "Compliance LLM: API key missing"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if strings.Contains(msg, "State directory") {
		t.Fatalf("existing state dir should pass: %q", msg)
	}
}
