package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrExtraction      = errors.New("extraction failure")
	ErrRetrieval       = errors.New("retrieval failure")
	ErrJudgeParse      = errors.New("judge parse failure")
	ErrJudgeInvocation = errors.New("judge invocation failure")
	ErrExternalTool    = errors.New("external tool error")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Kind names used when stage failures are folded into an audit's error log.
const (
	KindConfiguration   = "ConfigurationError"
	KindExtraction      = "ExtractionFailure"
	KindRetrieval       = "RetrievalFailure"
	KindJudgeParse      = "JudgeParseFailure"
	KindJudgeInvocation = "JudgeInvocationFailure"
	KindUnexpected      = "UnexpectedFailure"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the failure kind recorded against an audit.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, ErrRetrieval):
		return KindRetrieval
	case errors.Is(err, ErrJudgeParse):
		return KindJudgeParse
	case errors.Is(err, ErrJudgeInvocation):
		return KindJudgeInvocation
	default:
		return KindUnexpected
	}
}

// Describe renders err as "<Kind>: <message>" for the audit error log.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return Kind(err) + ": " + err.Error()
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
