package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brandguardian/internal/api"
	"brandguardian/internal/textutil"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	descriptionWidth = 60
)

var titleCaser = cases.Title(language.English)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func verdictKind(status string) statusKind {
	switch strings.ToUpper(status) {
	case "PASS":
		return statusOK
	case "FAIL":
		return statusError
	default:
		return statusWarn
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// displayLabel title-cases free-form model labels such as "claim validation".
func displayLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return titleCaser.String(strings.ToLower(value))
}

// renderAuditReport prints the compliance report block for one audit.
func renderAuditReport(out io.Writer, resp api.AuditResponse, errs []string, colorize bool) {
	for _, line := range renderSectionHeader("Compliance Audit Report", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Session", statusInfo, resp.SessionID, colorize))
	fmt.Fprintln(out, renderStatusLine("Video ID", statusInfo, resp.VideoID, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", verdictKind(resp.Status), resp.Status, colorize))
	fmt.Fprintln(out)

	issueCount := len(resp.ComplianceResults)
	fmt.Fprintf(out, "Violations detected: %d %s\n", issueCount, textutil.Ternary(issueCount == 1, "issue", "issues"))
	if issueCount > 0 {
		rows := make([][]string, 0, issueCount)
		for _, issue := range resp.ComplianceResults {
			rows = append(rows, []string{
				strings.ToUpper(strings.TrimSpace(issue.Severity)),
				displayLabel(issue.Category),
				issue.Description,
				textutil.Ternary(issue.Timestamp == "", "-", issue.Timestamp),
			})
		}
		fmt.Fprintln(out, renderTable([]column{
			{Header: "Severity"},
			{Header: "Category"},
			{Header: "Description", MaxWidth: descriptionWidth},
			{Header: "At", Align: alignRight},
		}, rows))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "[FINAL SUMMARY]")
	report := strings.TrimSpace(resp.FinalReport)
	fmt.Fprintln(out, textutil.Ternary(report == "", "(no report)", report))

	if len(errs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Errors:")
		for _, msg := range errs {
			fmt.Fprintf(out, "  - %s\n", msg)
		}
	}
}

// writeJSON prints v as indented JSON on stdout. HTML characters in model
// output are left unescaped.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
