package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brandguardian/internal/api"
	"brandguardian/internal/config"
	"brandguardian/internal/history"
	"brandguardian/internal/logging"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type apiServer struct {
	bind        string
	serviceName string
	maxUpload   int64
	tempDir     string
	logger      *slog.Logger
	daemon      *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:        strings.TrimSpace(cfg.Server.Bind),
		serviceName: cfg.Server.ServiceName,
		maxUpload:   cfg.MaxUploadBytes(),
		tempDir:     cfg.Paths.TempDir,
		logger:      logger,
		daemon:      d,
	}

	token := strings.TrimSpace(cfg.Server.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.handleIndex)
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("POST /audit", authMiddleware(token, srv.handleAudit))
	mux.HandleFunc("GET /audits", authMiddleware(token, srv.handleAudits))
	mux.HandleFunc("GET /audits/{id}", authMiddleware(token, srv.handleAuditDetail))
	mux.HandleFunc("GET /status", authMiddleware(token, srv.handleStatus))

	srv.server = &http.Server{
		Handler:           corsMiddleware(cfg.Server.CORSOrigins, requestIDMiddleware(srv.recoverMiddleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		// Audits upload large files and poll the indexer for minutes.
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: api.HealthyStatus, Service: s.serviceName})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.ServerStatus{
		Running:      status.Running,
		PID:          status.PID,
		Service:      s.serviceName,
		Bind:         status.Bind,
		LockFilePath: status.LockFilePath,
		HistoryPath:  status.HistoryPath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func (s *apiServer) handleAudits(w http.ResponseWriter, r *http.Request) {
	if s.daemon.history == nil {
		s.writeJSON(w, http.StatusOK, api.AuditListResponse{Audits: []api.AuditRecord{}})
		return
	}
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	records, err := s.daemon.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.AuditListResponse{Audits: api.FromRecords(records)})
}

func (s *apiServer) handleAuditDetail(w http.ResponseWriter, r *http.Request) {
	if s.daemon.history == nil {
		s.writeError(w, http.StatusNotFound, "audit history is disabled")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	state, err := s.daemon.history.Get(r.Context(), id)
	switch {
	case errors.Is(err, history.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "audit not found")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromStateDetail(state))
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Detail: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
