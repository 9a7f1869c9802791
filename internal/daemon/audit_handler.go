package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"brandguardian/internal/api"
	"brandguardian/internal/auditstate"
	"brandguardian/internal/fileutil"
	"brandguardian/internal/logging"
	"brandguardian/internal/services"
)

const (
	uploadFieldName = "file"
	maxJSONBody     = 1 << 20
	// multipartOverhead covers part headers and boundaries on top of the media limit.
	multipartOverhead = 1 << 20
)

// requestError carries the HTTP status a rejected submission maps to.
type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string { return e.detail }

func rejectRequest(status int, detail string) error {
	return &requestError{status: status, detail: detail}
}

// submission is a resolved audit input plus its cleanup.
type submission struct {
	reference string
	cleanup   func()
}

func (s *apiServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	sessionID := s.daemon.newSessionID()
	ctx := services.WithSessionID(r.Context(), sessionID)
	ctx = services.WithVideoID(ctx, auditstate.VideoIDForSession(sessionID))
	logger := logging.WithContext(ctx, s.log())

	sub, err := s.readSubmission(w, r, sessionID)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			s.writeError(w, reqErr.status, reqErr.detail)
			return
		}
		logging.WarnWithContext(logger, "audit upload failed", "audit_upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check temp_dir permissions and free space"),
			logging.String(logging.FieldImpact, "audit request rejected"),
		)
		s.writeError(w, http.StatusInternalServerError, api.WorkflowFailurePrefix+err.Error())
		return
	}
	defer sub.cleanup()

	logger.Info("audit request accepted",
		logging.String(logging.FieldEventType, "audit_request_accepted"),
		logging.String("video_reference", sub.reference),
	)
	state, err := s.daemon.auditor.RunSession(ctx, sessionID, sub.reference)
	if err != nil {
		logging.ErrorWithContext(logger, "audit workflow failed", "audit_workflow_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the per-audit log for the failing stage"),
		)
		s.writeError(w, http.StatusInternalServerError, api.WorkflowFailurePrefix+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromState(state))
}

func (s *apiServer) readSubmission(w http.ResponseWriter, r *http.Request, sessionID string) (submission, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return submission{}, rejectRequest(http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data or application/json")
	}
	switch mediaType {
	case "multipart/form-data":
		return s.readUpload(w, r, sessionID)
	case "application/json":
		return s.readJSON(w, r)
	default:
		return submission{}, rejectRequest(http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data or application/json")
	}
}

func (s *apiServer) readJSON(w http.ResponseWriter, r *http.Request) (submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req api.AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return submission{}, rejectRequest(http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	reference := strings.TrimSpace(req.VideoURL)
	if reference == "" {
		return submission{}, rejectRequest(http.StatusUnprocessableEntity, "video_url is required")
	}
	if !isRemoteURL(reference) {
		return submission{}, rejectRequest(http.StatusUnprocessableEntity, "video_url must be an http or https URL")
	}
	return submission{reference: reference, cleanup: func() {}}, nil
}

// isRemoteURL reports whether reference is an absolute http(s) URL. Server
// file paths are only reachable through multipart uploads.
func isRemoteURL(reference string) bool {
	u, err := url.Parse(reference)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// readUpload streams the "file" part to a session-scoped temp path. The
// returned cleanup removes it whatever the audit outcome.
func (s *apiServer) readUpload(w http.ResponseWriter, r *http.Request, sessionID string) (submission, error) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return submission{}, rejectRequest(http.StatusBadRequest, "invalid multipart body: "+err.Error())
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return submission{}, rejectRequest(http.StatusUnprocessableEntity, "file is required")
		}
		if err != nil {
			if tooLarge(err) {
				return submission{}, uploadError(err)
			}
			return submission{}, rejectRequest(http.StatusBadRequest, "invalid multipart body: "+err.Error())
		}
		if part.FormName() != uploadFieldName {
			_ = part.Close()
			continue
		}
		name := part.FileName()
		if strings.TrimSpace(name) == "" {
			_ = part.Close()
			return submission{}, rejectRequest(http.StatusUnprocessableEntity, "file is required")
		}

		path := fileutil.SessionMediaPath(s.tempDir, auditstate.VideoIDForSession(sessionID), sessionID, fileutil.MediaExtension(name))
		written, err := fileutil.WriteStream(path, part, s.maxUpload)
		_ = part.Close()
		if err != nil {
			return submission{}, uploadError(err)
		}
		cleanup := func() {
			if err := fileutil.RemoveIfExists(path); err != nil {
				logging.WarnWithContext(s.log(), "failed to remove uploaded media", "upload_cleanup_failed",
					logging.Error(err),
					logging.String("path", path),
					logging.String(logging.FieldErrorHint, "remove the file from temp_dir manually"),
					logging.String(logging.FieldImpact, "temp_dir disk usage grows"),
				)
			}
		}
		if written == 0 {
			cleanup()
			return submission{}, rejectRequest(http.StatusUnprocessableEntity, "uploaded file is empty")
		}
		return submission{reference: path, cleanup: cleanup}, nil
	}
}

func uploadError(err error) error {
	if tooLarge(err) {
		return rejectRequest(http.StatusRequestEntityTooLarge, "uploaded file exceeds the size limit")
	}
	return err
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, fileutil.ErrTooLarge)
}
