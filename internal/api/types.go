package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// HealthyStatus is the status string reported by the health endpoint.
const HealthyStatus = "Healthy"

// WorkflowFailurePrefix prefixes the detail of a 500 audit response.
const WorkflowFailurePrefix = "Workflow Execution Failed : "

// AuditRequest is the JSON form of an audit submission.
type AuditRequest struct {
	VideoURL string `json:"video_url"`
}

// ComplianceIssue is one violation in an audit response.
type ComplianceIssue struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// AuditResponse is the result of a completed audit run.
type AuditResponse struct {
	SessionID         string            `json:"session_id"`
	VideoID           string            `json:"video_id"`
	Status            string            `json:"status"`
	FinalReport       string            `json:"final_report"`
	ComplianceResults []ComplianceIssue `json:"compliance_results"`
}

// ErrorResponse carries a human-readable failure description.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse answers liveness probes.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// AuditRecord summarizes a stored audit.
type AuditRecord struct {
	SessionID      string `json:"session_id"`
	VideoID        string `json:"video_id"`
	VideoReference string `json:"video_reference"`
	Status         string `json:"status"`
	IssueCount     int    `json:"issue_count"`
	ErrorCount     int    `json:"error_count"`
	CreatedAt      string `json:"created_at,omitempty"`
	CompletedAt    string `json:"completed_at,omitempty"`
}

// AuditListResponse wraps a collection of stored audits.
type AuditListResponse struct {
	Audits []AuditRecord `json:"audits"`
}

// StageRun describes one stage execution within an audit.
type StageRun struct {
	Stage      string `json:"stage"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// AuditDetail is the full view of a stored audit.
type AuditDetail struct {
	AuditResponse
	VideoReference string         `json:"video_reference"`
	VideoMetadata  map[string]any `json:"video_metadata,omitempty"`
	Transcript     string         `json:"transcript"`
	OCRText        []string       `json:"ocr_text"`
	Errors         []string       `json:"errors"`
	Phase          string         `json:"phase"`
	Stages         []StageRun     `json:"stages"`
	CreatedAt      string         `json:"created_at,omitempty"`
	CompletedAt    string         `json:"completed_at,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	ActiveAudits    int            `json:"active_audits"`
	CompletedAudits int            `json:"completed_audits"`
	FailedAudits    int            `json:"failed_audits"`
	LastError       string         `json:"last_error,omitempty"`
	LastAudit       *AuditResponse `json:"last_audit,omitempty"`
	StageHealth     []StageHealth  `json:"stage_health"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// ServerStatus aggregates runtime information for API consumers.
type ServerStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Service      string             `json:"service"`
	Bind         string             `json:"bind"`
	LockFilePath string             `json:"lock_file_path"`
	HistoryPath  string             `json:"history_path,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
