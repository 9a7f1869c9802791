package auditstate

import (
	"maps"
	"slices"
	"time"
)

// Extraction carries the normalized output of the extraction stage.
type Extraction struct {
	Transcript string
	OCRText    []string
	Metadata   map[string]any
	OK         bool
}

// Update is the partial result a stage returns. Nil or zero fields leave the
// corresponding state untouched; ComplianceResults and Errors are appended.
type Update struct {
	Stage    string
	Outcome  Outcome
	Detail   string
	Duration time.Duration

	Extraction        *Extraction
	FinalStatus       Status
	FinalReport       *string
	ComplianceResults []ComplianceIssue
	Errors            []string
}

// Merge folds update into state and returns the result. The input state is not modified.
func Merge(state State, update Update) State {
	out := state.Clone()
	if ex := update.Extraction; ex != nil {
		out.Transcript = ex.Transcript
		out.OCRText = cloneSlice(ex.OCRText)
		out.VideoMetadata = maps.Clone(ex.Metadata)
		out.Extracted = ex.OK
	}
	if update.FinalStatus != "" {
		out.FinalStatus = update.FinalStatus
	}
	if update.FinalReport != nil {
		out.FinalReport = *update.FinalReport
	}
	out.ComplianceResults = append(out.ComplianceResults, update.ComplianceResults...)
	out.Errors = append(out.Errors, update.Errors...)
	if update.Stage != "" {
		out.Stages = append(out.Stages, StageRecord{
			Stage:    update.Stage,
			Outcome:  update.Outcome,
			Detail:   update.Detail,
			Duration: update.Duration,
		})
	}
	return out
}

// Failed builds an update that records err under stage and forces a FAIL verdict.
func Failed(stage, message string) Update {
	return Update{
		Stage:       stage,
		Outcome:     OutcomeFailed,
		Detail:      message,
		FinalStatus: StatusFail,
		Errors:      []string{message},
	}
}

// StringPtr returns a pointer to value for Update.FinalReport.
func StringPtr(value string) *string {
	return &value
}

// IssuesEqual reports whether two issue lists match element-wise.
func IssuesEqual(a, b []ComplianceIssue) bool {
	return slices.Equal(a, b)
}
