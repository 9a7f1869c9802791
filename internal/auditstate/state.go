package auditstate

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Status is the overall audit verdict.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus normalizes a verdict string. Empty input yields an empty status.
func ParseStatus(value string) Status {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "":
		return ""
	case string(StatusPass):
		return StatusPass
	case string(StatusFail):
		return StatusFail
	default:
		return StatusUnknown
	}
}

// Phase tracks the workflow position of a run.
type Phase string

const (
	PhaseStart      Phase = "START"
	PhaseExtracting Phase = "EXTRACTING"
	PhaseAuditing   Phase = "AUDITING"
	PhaseDone       Phase = "DONE"
)

// Outcome tags how a stage finished.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// ComplianceIssue is one detected violation.
type ComplianceIssue struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// StageRecord summarizes one stage execution.
type StageRecord struct {
	Stage    string        `json:"stage"`
	Outcome  Outcome       `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// State is the accumulating record for one audit request.
type State struct {
	SessionID         string            `json:"session_id"`
	VideoReference    string            `json:"video_reference"`
	VideoID           string            `json:"video_id"`
	VideoMetadata     map[string]any    `json:"video_metadata,omitempty"`
	Transcript        string            `json:"transcript"`
	OCRText           []string          `json:"ocr_text"`
	Extracted         bool              `json:"extracted"`
	ComplianceResults []ComplianceIssue `json:"compliance_results"`
	FinalStatus       Status            `json:"final_status"`
	FinalReport       string            `json:"final_report"`
	Errors            []string          `json:"errors"`
	Phase             Phase             `json:"phase"`
	Stages            []StageRecord     `json:"stages,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	CompletedAt       time.Time         `json:"completed_at,omitzero"`
}

// New returns the initial state for a session.
func New(sessionID, reference string) State {
	return State{
		SessionID:         sessionID,
		VideoReference:    reference,
		VideoID:           VideoIDForSession(sessionID),
		OCRText:           []string{},
		ComplianceResults: []ComplianceIssue{},
		Errors:            []string{},
		FinalStatus:       StatusUnknown,
		Phase:             PhaseStart,
		CreatedAt:         time.Now().UTC(),
	}
}

// VideoIDForSession derives the short session-scoped video identifier.
func VideoIDForSession(sessionID string) string {
	compact := strings.ReplaceAll(strings.TrimSpace(sessionID), "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "vid_" + compact
}

// Auditable reports whether the audit stage has input to work with.
func (s State) Auditable() bool {
	return s.Extracted && strings.TrimSpace(s.Transcript) != ""
}

// Passed reports whether the run finished with a PASS verdict.
func (s State) Passed() bool {
	return s.FinalStatus == StatusPass
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.VideoMetadata = maps.Clone(s.VideoMetadata)
	out.OCRText = cloneSlice(s.OCRText)
	out.ComplianceResults = cloneSlice(s.ComplianceResults)
	out.Errors = cloneSlice(s.Errors)
	out.Stages = cloneSlice(s.Stages)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
