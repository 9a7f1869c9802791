package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"brandguardian/internal/auditstate"
)

// ErrNotFound is returned when no audit matches a session identifier.
var ErrNotFound = errors.New("audit not found")

// Record summarizes one stored audit.
type Record struct {
	SessionID      string            `json:"session_id"`
	VideoID        string            `json:"video_id"`
	VideoReference string            `json:"video_reference"`
	FinalStatus    auditstate.Status `json:"final_status"`
	IssueCount     int               `json:"issue_count"`
	ErrorCount     int               `json:"error_count"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    time.Time         `json:"completed_at,omitzero"`
}

// Store is the SQLite-backed audit ledger.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = "2006-01-02T15:04:05.000000000Z07:00"
)

// Open creates or connects to the ledger at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces the final state of an audit.
func (s *Store) Save(ctx context.Context, state auditstate.State) error {
	if strings.TrimSpace(state.SessionID) == "" {
		return errors.New("history: session id is required")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("history: encode state: %w", err)
	}
	var completed sql.NullString
	if !state.CompletedAt.IsZero() {
		completed = sql.NullString{String: state.CompletedAt.UTC().Format(timeLayout), Valid: true}
	}
	return s.execWithRetry(ctx, `
INSERT INTO audits (session_id, video_id, video_reference, final_status, issue_count, error_count, created_at, completed_at, state_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    final_status = excluded.final_status,
    issue_count = excluded.issue_count,
    error_count = excluded.error_count,
    completed_at = excluded.completed_at,
    state_json = excluded.state_json`,
		state.SessionID,
		state.VideoID,
		state.VideoReference,
		string(state.FinalStatus),
		len(state.ComplianceResults),
		len(state.Errors),
		state.CreatedAt.UTC().Format(timeLayout),
		completed,
		string(payload),
	)
}

// List returns the most recent audits, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	query := `SELECT session_id, video_id, video_reference, final_status, issue_count, error_count, created_at, completed_at
FROM audits ORDER BY created_at DESC, session_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec       Record
			status    string
			created   string
			completed sql.NullString
		)
		if err := rows.Scan(&rec.SessionID, &rec.VideoID, &rec.VideoReference, &status, &rec.IssueCount, &rec.ErrorCount, &created, &completed); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		rec.FinalStatus = auditstate.Status(status)
		rec.CreatedAt = parseTime(created)
		if completed.Valid {
			rec.CompletedAt = parseTime(completed.String)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return records, nil
}

// Get returns the full stored state for sessionID.
func (s *Store) Get(ctx context.Context, sessionID string) (auditstate.State, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT state_json FROM audits WHERE session_id = ?", strings.TrimSpace(sessionID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return auditstate.State{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return auditstate.State{}, fmt.Errorf("history: get: %w", err)
	}
	var state auditstate.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return auditstate.State{}, fmt.Errorf("history: decode state: %w", err)
	}
	return state, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
