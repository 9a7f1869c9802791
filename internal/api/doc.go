// Package api defines wire-format types and converters for the HTTP API and
// the CLI's JSON output. It translates audit state, history records, and
// workflow diagnostics into transport-friendly DTOs so handlers never encode
// internal types directly.
//
// # Key Types
//
// AuditRequest: JSON body accepted by POST /audit ({"video_url": ...}).
//
// AuditResponse: the audit result returned to callers (session, video ID,
// verdict, report, and issue list).
//
// ErrorResponse: {"detail": ...} payload used for every non-2xx response.
//
// AuditRecord/AuditDetail: history listing and single-audit views.
//
// ServerStatus: runtime counters, stage health, and dependency checks.
//
// # Converters
//
// FromState: auditstate.State -> AuditResponse.
//
// FromStateDetail: auditstate.State -> AuditDetail with stage timings.
//
// FromRecords: history.Record list -> AuditRecord list.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// StageHealthSlice: deterministic ordering of stage health map.
//
// # Design Notes
//
// DTOs use snake_case JSON tags to match the audit response contract.
// Sequence fields are always encoded as arrays, never null, so browser
// clients can iterate without guards. Timestamps use RFC3339 with
// milliseconds.
package api
