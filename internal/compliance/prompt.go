package compliance

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are a senior brand compliance auditor.

OFFICIAL REGULATORY RULES:
%s

INSTRUCTIONS:
1. Analyze the transcript and OCR text below.
2. Identify any violation of the rules.
3. Return strictly JSON in the following format:
{
  "compliance_results": [
    {
      "category": "Claim Validation",
      "severity": "CRITICAL",
      "description": "Explanation of the violation...",
      "timestamp": "optional position in the video, e.g. 00:00:12"
    }
  ],
  "status": "FAIL",
  "final_report": "Summary of findings..."
}

If no violations are found, set "status" to "PASS" and "compliance_results" to [].`

const noRulesPlaceholder = "(no matching rules were found in the knowledge base)"

// SystemPrompt embeds the retrieved rules into the auditor instructions.
func SystemPrompt(rules []string) string {
	joined := strings.TrimSpace(strings.Join(rules, "\n\n"))
	if joined == "" {
		joined = noRulesPlaceholder
	}
	return fmt.Sprintf(systemPromptTemplate, joined)
}

// UserPrompt renders the video evidence for the model.
func UserPrompt(transcript string, ocrText []string, metadata map[string]any) string {
	meta := "{}"
	if len(metadata) > 0 {
		if encoded, err := json.Marshal(metadata); err == nil {
			meta = string(encoded)
		}
	}
	ocr := "[]"
	if len(ocrText) > 0 {
		if encoded, err := json.Marshal(ocrText); err == nil {
			ocr = string(encoded)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "VIDEO_METADATA: %s\n", meta)
	fmt.Fprintf(&b, "TRANSCRIPT: %s\n", strings.TrimSpace(transcript))
	fmt.Fprintf(&b, "ON SCREEN TEXT (OCR): %s\n", ocr)
	return b.String()
}

// RetrievalQuery builds the knowledge base query from transcript and OCR text.
func RetrievalQuery(transcript string, ocrText []string) string {
	return transcript + " " + strings.Join(ocrText, "")
}
