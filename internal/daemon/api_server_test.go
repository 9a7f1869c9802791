package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"brandguardian/internal/api"
	"brandguardian/internal/auditstate"
	"brandguardian/internal/config"
	"brandguardian/internal/stage"
	"brandguardian/internal/testsupport"
	"brandguardian/internal/workflow"
)

const testSessionID = "12345678-aaaa-bbbb-cccc-000000000001"

type stubAuditor struct {
	mu          sync.Mutex
	references  []string
	fileExisted []bool
	err         error
	panicWith   any
}

func (s *stubAuditor) RunSession(_ context.Context, sessionID, reference string) (auditstate.State, error) {
	s.mu.Lock()
	s.references = append(s.references, reference)
	_, statErr := os.Stat(reference)
	s.fileExisted = append(s.fileExisted, statErr == nil)
	s.mu.Unlock()

	if s.panicWith != nil {
		panic(s.panicWith)
	}
	if s.err != nil {
		return auditstate.State{}, s.err
	}
	state := auditstate.New(sessionID, reference)
	state.FinalStatus = auditstate.StatusFail
	state.FinalReport = "One claim needs substantiation."
	state.ComplianceResults = []auditstate.ComplianceIssue{
		{Category: "Claim Validation", Severity: "WARNING", Description: "Unqualified superiority claim"},
	}
	return state, nil
}

func (s *stubAuditor) Status(context.Context) workflow.StatusSummary {
	return workflow.StatusSummary{
		CompletedAudits: 1,
		StageHealth: map[string]stage.Health{
			"extraction": stage.Healthy("extraction"),
			"audit":      stage.Healthy("audit"),
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, auditor *stubAuditor, opts ...Option) *apiServer {
	t.Helper()
	opts = append([]Option{WithSessionIDs(func() string { return testSessionID })}, opts...)
	d, err := New(cfg, nil, auditor, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return newAPIServer(cfg, d, nil)
}

func serve(srv *apiServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("note", "ignored"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/audit", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Detail
}

func tempEntries(t *testing.T, cfg *config.Config) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.TempDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read temp dir: %v", err)
	}
	return entries
}

func TestHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "Healthy" || resp.Service != "Brand Guardian AI" {
		t.Fatalf("unexpected health payload %+v", resp)
	}
}

func TestAuditUploadRunsAndRemovesMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	auditor := &stubAuditor{}
	srv := newTestServer(t, cfg, auditor)

	w := serve(srv, uploadRequest(t, "file", "campaign.MOV", []byte("fake video bytes")))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.AuditResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != testSessionID || resp.VideoID != "vid_12345678" {
		t.Fatalf("unexpected identifiers %+v", resp)
	}
	if resp.Status != "FAIL" || len(resp.ComplianceResults) != 1 {
		t.Fatalf("unexpected verdict %+v", resp)
	}

	if len(auditor.references) != 1 {
		t.Fatalf("expected one audit run, got %d", len(auditor.references))
	}
	ref := auditor.references[0]
	if filepath.Dir(ref) != cfg.Paths.TempDir {
		t.Fatalf("upload stored outside temp dir: %s", ref)
	}
	if !strings.HasSuffix(ref, ".mov") {
		t.Fatalf("expected lowercase extension to be kept, got %s", ref)
	}
	if !auditor.fileExisted[0] {
		t.Fatal("uploaded media should exist while the audit runs")
	}
	if _, err := os.Stat(ref); !os.IsNotExist(err) {
		t.Fatalf("uploaded media should be removed after the audit, stat err=%v", err)
	}
}

func TestAuditWorkflowErrorReturnsDetail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	auditor := &stubAuditor{err: errors.New("stage panicked: boom")}
	srv := newTestServer(t, cfg, auditor)

	w := serve(srv, uploadRequest(t, "file", "ad.mp4", []byte("bytes")))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := decodeDetail(t, w); got != "Workflow Execution Failed : stage panicked: boom" {
		t.Fatalf("unexpected detail %q", got)
	}
	if entries := tempEntries(t, cfg); len(entries) != 0 {
		t.Fatalf("expected temp dir to be empty after failure, found %d entries", len(entries))
	}
}

func TestAuditPanicReturnsDetail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{panicWith: "kaboom"})

	w := serve(srv, uploadRequest(t, "file", "ad.mp4", []byte("bytes")))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := decodeDetail(t, w); got != "Workflow Execution Failed : kaboom" {
		t.Fatalf("unexpected detail %q", got)
	}
	if entries := tempEntries(t, cfg); len(entries) != 0 {
		t.Fatalf("expected upload cleanup after panic, found %d entries", len(entries))
	}
}

func TestAuditJSONVideoURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	auditor := &stubAuditor{}
	srv := newTestServer(t, cfg, auditor)

	req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{"video_url":" https://youtu.be/xTpv9lc_qMw "}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(srv, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if len(auditor.references) != 1 || auditor.references[0] != "https://youtu.be/xTpv9lc_qMw" {
		t.Fatalf("unexpected references %v", auditor.references)
	}
}

func TestAuditRejectsInvalidSubmissions(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		detail string
	}{
		{
			name: "json without url",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusUnprocessableEntity,
			detail: "video_url is required",
		},
		{
			name: "json server path",
			req: func(t *testing.T) *http.Request {
				path := filepath.Join(t.TempDir(), "private.mp4")
				if err := os.WriteFile(path, []byte("secret"), 0o644); err != nil {
					t.Fatalf("write file: %v", err)
				}
				body, _ := json.Marshal(map[string]string{"video_url": path})
				req := httptest.NewRequest(http.MethodPost, "/audit", bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusUnprocessableEntity,
			detail: "video_url must be an http or https URL",
		},
		{
			name: "json file scheme",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{"video_url":"file:///etc/passwd"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusUnprocessableEntity,
			detail: "video_url must be an http or https URL",
		},
		{
			name: "malformed json",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{"video_url":`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unsupported content type",
			req: func(*testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader("raw"))
				req.Header.Set("Content-Type", "video/mp4")
				return req
			},
			status: http.StatusUnsupportedMediaType,
		},
		{
			name: "multipart without file",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", "", nil)
			},
			status: http.StatusUnprocessableEntity,
			detail: "file is required",
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "ad.mp4", nil)
			},
			status: http.StatusUnprocessableEntity,
			detail: "uploaded file is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			auditor := &stubAuditor{}
			srv := newTestServer(t, cfg, auditor)

			w := serve(srv, tt.req(t))
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if detail := decodeDetail(t, w); tt.detail != "" && detail != tt.detail {
				t.Fatalf("detail = %q, want %q", detail, tt.detail)
			}
			if len(auditor.references) != 0 {
				t.Fatalf("workflow should not run, got %v", auditor.references)
			}
			if entries := tempEntries(t, cfg); len(entries) != 0 {
				t.Fatalf("expected no temp files, found %d", len(entries))
			}
		})
	}
}

func TestAuditUploadTooLarge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.MaxUploadMB = 1
	auditor := &stubAuditor{}
	srv := newTestServer(t, cfg, auditor)

	payload := bytes.Repeat([]byte("x"), (1<<20)+512)
	w := serve(srv, uploadRequest(t, "file", "big.mp4", payload))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
	if len(auditor.references) != 0 {
		t.Fatal("workflow should not run for oversized uploads")
	}
	if entries := tempEntries(t, cfg); len(entries) != 0 {
		t.Fatalf("expected partial upload to be removed, found %d entries", len(entries))
	}
}

func TestAuthTokenProtectsAuditRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.APIToken = "secret"
	srv := newTestServer(t, cfg, &stubAuditor{})

	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/status", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if w := serve(srv, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Fatalf("health should stay public, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	req := httptest.NewRequest(http.MethodOptions, "/audit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(srv, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.CORSOrigins = []string{"https://brand.example"}
	srv := newTestServer(t, cfg, &stubAuditor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	if w := serve(srv, req); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unlisted origin should not be allowed")
	}
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://brand.example")
	if w := serve(srv, req); w.Header().Get("Access-Control-Allow-Origin") != "https://brand.example" {
		t.Fatal("listed origin should be echoed")
	}
}

func TestRequestIDHeader(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	if got := serve(srv, req).Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
	if got := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil)).Header().Get("X-Request-ID"); got == "" {
		t.Fatal("expected generated request id")
	}
}

func TestIndexServesUploadPage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	body := w.Body.String()
	if !strings.Contains(body, `fetch("/audit"`) || !strings.Contains(body, `body.append("file"`) {
		t.Fatal("upload page should post the file field to /audit")
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/missing", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", w.Code)
	}
}

func TestStatusReportsWorkflow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.ServerStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon was never started")
	}
	if resp.Workflow.CompletedAudits != 1 || len(resp.Workflow.StageHealth) != 2 {
		t.Fatalf("unexpected workflow status %+v", resp.Workflow)
	}
	if len(resp.Dependencies) != 1 || resp.Dependencies[0].Name != "yt-dlp" {
		t.Fatalf("unexpected dependencies %+v", resp.Dependencies)
	}
}

func TestAuditHistoryRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenHistory(t, cfg)
	state := auditstate.New("session-1", "https://youtu.be/abc")
	state.FinalStatus = auditstate.StatusPass
	state.FinalReport = "Compliant."
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	srv := newTestServer(t, cfg, &stubAuditor{}, WithHistory(store))

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/audits?limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var list api.AuditListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Audits) != 1 || list.Audits[0].SessionID != "session-1" || list.Audits[0].Status != "PASS" {
		t.Fatalf("unexpected audits %+v", list.Audits)
	}

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/audits/session-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var detail api.AuditDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode detail: %v", err)
	}
	if detail.FinalReport != "Compliant." || detail.VideoReference != "https://youtu.be/abc" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/audits/missing", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown audit, got %d", w.Code)
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/audits?limit=zero", nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", w.Code)
	}
}

func TestAuditHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, &stubAuditor{})

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/audits", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"audits":[]}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if w := serve(srv, httptest.NewRequest(http.MethodGet, "/audits/x", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when history is disabled, got %d", w.Code)
	}
}
