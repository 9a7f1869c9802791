package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/logging"
	"brandguardian/internal/services"
	"brandguardian/internal/services/llm"
)

// DefaultReport is used when the model omits final_report.
const DefaultReport = "No report generated"

// Completer issues one chat completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Verdict is the structured outcome of one judgement.
type Verdict struct {
	Status            auditstate.Status
	ComplianceResults []auditstate.ComplianceIssue
	FinalReport       string
}

// Judge asks a chat model for a compliance verdict.
type Judge struct {
	llm    Completer
	logger *slog.Logger
}

// NewJudge constructs a judge backed by completer.
func NewJudge(completer Completer, logger *slog.Logger) *Judge {
	return &Judge{llm: completer, logger: logging.NewComponentLogger(logger, "judge")}
}

// Judge evaluates transcript and OCR text against rules. Model errors wrap
// services.ErrJudgeInvocation and unparseable output wraps services.ErrJudgeParse.
func (j *Judge) Judge(ctx context.Context, rules []string, transcript string, ocrText []string, metadata map[string]any) (Verdict, error) {
	if j == nil || j.llm == nil {
		return Verdict{}, services.Wrap(services.ErrConfiguration, "audit", "judge", "judge model not configured", nil)
	}
	logger := logging.WithContext(ctx, j.logger)
	content, err := j.llm.Complete(ctx, SystemPrompt(rules), UserPrompt(transcript, ocrText, metadata))
	if err != nil {
		return Verdict{}, services.Wrap(services.ErrJudgeInvocation, "audit", "judge", "model request failed", err)
	}
	verdict, err := ParseVerdict(content)
	if err != nil {
		logging.ErrorWithContext(logger, "judge output unparseable", "judge_parse_failed",
			logging.Error(err),
			logging.String("raw_response", llm.SummarizePayload(content)),
			logging.String(logging.FieldErrorHint, "check the model supports JSON output or enable llm.json_mode"),
		)
		return Verdict{}, err
	}
	logger.Info("judge verdict",
		logging.String("status", string(verdict.Status)),
		logging.Int("issues", len(verdict.ComplianceResults)),
	)
	return verdict, nil
}

type rawIssue struct {
	Category    string          `json:"category"`
	Severity    string          `json:"severity"`
	Description string          `json:"description"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

type rawVerdict struct {
	ComplianceResults []rawIssue `json:"compliance_results"`
	Status            *string    `json:"status"`
	FinalReport       *string    `json:"final_report"`
}

// ParseVerdict extracts the verdict object from model output. Code fences are
// stripped and the span from the first '{' to the last '}' is decoded. A
// missing status means FAIL; a PASS that carries issues becomes FAIL.
func ParseVerdict(content string) (Verdict, error) {
	object, err := llm.ExtractJSONObject(content)
	if err != nil {
		return Verdict{}, services.Wrap(services.ErrJudgeParse, "audit", "parse verdict", "no JSON object in model output", err)
	}
	var raw rawVerdict
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return Verdict{}, services.Wrap(services.ErrJudgeParse, "audit", "parse verdict",
			fmt.Sprintf("invalid JSON in model output (%s)", llm.SummarizePayload(object)), err)
	}

	verdict := Verdict{
		Status:            auditstate.StatusFail,
		ComplianceResults: make([]auditstate.ComplianceIssue, 0, len(raw.ComplianceResults)),
		FinalReport:       DefaultReport,
	}
	if raw.Status != nil {
		if status := auditstate.ParseStatus(*raw.Status); status != "" {
			verdict.Status = status
		}
	}
	if raw.FinalReport != nil {
		verdict.FinalReport = *raw.FinalReport
	}
	for _, issue := range raw.ComplianceResults {
		if issue.Category == "" && issue.Severity == "" && issue.Description == "" {
			continue
		}
		verdict.ComplianceResults = append(verdict.ComplianceResults, auditstate.ComplianceIssue{
			Category:    issue.Category,
			Severity:    issue.Severity,
			Description: issue.Description,
			Timestamp:   timestampString(issue.Timestamp),
		})
	}
	if verdict.Status == auditstate.StatusPass && len(verdict.ComplianceResults) > 0 {
		verdict.Status = auditstate.StatusFail
	}
	return verdict, nil
}

func timestampString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err == nil {
		return strconv.FormatFloat(seconds, 'f', -1, 64) + "s"
	}
	return ""
}
