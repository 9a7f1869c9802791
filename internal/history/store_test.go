package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func finishedState(sessionID string, created time.Time, status auditstate.Status, issues int) auditstate.State {
	state := auditstate.New(sessionID, "https://youtu.be/xTpv9lc_qMw")
	state.CreatedAt = created
	state.CompletedAt = created.Add(90 * time.Second)
	state.Phase = auditstate.PhaseDone
	state.FinalStatus = status
	state.FinalReport = "summary"
	state.Transcript = "buy now"
	for range issues {
		state.ComplianceResults = append(state.ComplianceResults, auditstate.ComplianceIssue{
			Category: "Claim Validation", Severity: "CRITICAL", Description: "unsupported claim", Timestamp: "12s",
		})
	}
	return state
}

func TestSaveAndGetRoundTripsState(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state := finishedState("11111111-aaaa", created, auditstate.StatusFail, 2)
	state.Errors = append(state.Errors, "ExtractionFailure: upload failed")

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, "11111111-aaaa")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FinalStatus != auditstate.StatusFail || got.FinalReport != "summary" {
		t.Fatalf("unexpected verdict %s %q", got.FinalStatus, got.FinalReport)
	}
	if !auditstate.IssuesEqual(got.ComplianceResults, state.ComplianceResults) {
		t.Fatalf("issues differ: %+v", got.ComplianceResults)
	}
	if len(got.Errors) != 1 || got.VideoID != state.VideoID {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestSaveReplacesExistingSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, finishedState("s1", created, auditstate.StatusUnknown, 0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, finishedState("s1", created, auditstate.StatusPass, 0)); err != nil {
		t.Fatalf("Save replace: %v", err)
	}
	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].FinalStatus != auditstate.StatusPass {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		if err := store.Save(ctx, finishedState(id, base.Add(time.Duration(i)*time.Hour), auditstate.StatusFail, i)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	records, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SessionID != "third" || records[1].SessionID != "second" {
		t.Fatalf("unexpected order %s, %s", records[0].SessionID, records[1].SessionID)
	}
	if records[0].IssueCount != 2 || !records[0].CreatedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected summary %+v", records[0])
	}
	if records[0].CompletedAt.IsZero() {
		t.Fatal("expected completion time")
	}
}

func TestGetMissingSession(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRequiresSessionID(t *testing.T) {
	store := openStore(t)
	if err := store.Save(context.Background(), auditstate.State{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Save(context.Background(), finishedState("persisted", time.Now().UTC(), auditstate.StatusPass, 0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "persisted"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
