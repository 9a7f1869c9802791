package api

import (
	"slices"
	"time"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/deps"
	"brandguardian/internal/history"
	"brandguardian/internal/stage"
	"brandguardian/internal/workflow"
)

// FromState converts an audit state into the audit response payload.
func FromState(state auditstate.State) AuditResponse {
	status := state.FinalStatus
	if status == "" {
		status = auditstate.StatusUnknown
	}
	return AuditResponse{
		SessionID:         state.SessionID,
		VideoID:           state.VideoID,
		Status:            string(status),
		FinalReport:       state.FinalReport,
		ComplianceResults: FromIssues(state.ComplianceResults),
	}
}

// FromIssues converts compliance issues. The result is never nil.
func FromIssues(issues []auditstate.ComplianceIssue) []ComplianceIssue {
	out := make([]ComplianceIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ComplianceIssue{
			Category:    issue.Category,
			Severity:    issue.Severity,
			Description: issue.Description,
			Timestamp:   issue.Timestamp,
		})
	}
	return out
}

// FromStateDetail converts an audit state into the full detail view.
func FromStateDetail(state auditstate.State) AuditDetail {
	detail := AuditDetail{
		AuditResponse:  FromState(state),
		VideoReference: state.VideoReference,
		VideoMetadata:  state.VideoMetadata,
		Transcript:     state.Transcript,
		OCRText:        nonNil(state.OCRText),
		Errors:         nonNil(state.Errors),
		Phase:          string(state.Phase),
		Stages:         make([]StageRun, 0, len(state.Stages)),
		CreatedAt:      FormatTime(state.CreatedAt),
		CompletedAt:    FormatTime(state.CompletedAt),
	}
	for _, rec := range state.Stages {
		detail.Stages = append(detail.Stages, StageRun{
			Stage:      rec.Stage,
			Outcome:    string(rec.Outcome),
			Detail:     rec.Detail,
			DurationMS: rec.Duration.Milliseconds(),
		})
	}
	return detail
}

// FromRecord converts a history record to its API representation.
func FromRecord(rec history.Record) AuditRecord {
	return AuditRecord{
		SessionID:      rec.SessionID,
		VideoID:        rec.VideoID,
		VideoReference: rec.VideoReference,
		Status:         string(rec.FinalStatus),
		IssueCount:     rec.IssueCount,
		ErrorCount:     rec.ErrorCount,
		CreatedAt:      FormatTime(rec.CreatedAt),
		CompletedAt:    FormatTime(rec.CompletedAt),
	}
}

// FromRecords converts a slice of history records. The result is never nil.
func FromRecords(records []history.Record) []AuditRecord {
	out := make([]AuditRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		ActiveAudits:    summary.ActiveAudits,
		CompletedAudits: summary.CompletedAudits,
		FailedAudits:    summary.FailedAudits,
		LastError:       summary.LastError,
		StageHealth:     StageHealthSlice(summary.StageHealth),
	}
	if wf.StageHealth == nil {
		wf.StageHealth = []StageHealth{}
	}
	if summary.LastAudit != nil {
		last := FromState(*summary.LastAudit)
		wf.LastAudit = &last
	}
	return wf
}

// FromDependencies converts binary dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Version:     s.Version,
			Detail:      s.Detail,
		})
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
