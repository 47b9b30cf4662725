package formatting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// FormatSyncResult renders a team reconciliation result as a findings table
// followed by the run summary.
func (f *TableFormatter) FormatSyncResult(result *teamsync.SyncResult) (string, error) {
	var b strings.Builder

	b.WriteString(f.renderFindings(result.Findings))
	b.WriteString(fmt.Sprintf("%s\n", result.Summary))

	if !f.options.Quiet {
		b.WriteString(fmt.Sprintf("Teams: %d processed, %d created, %d updated, %d skipped\n",
			result.Stats.Processed, result.Stats.Created, result.Stats.Updated, result.Stats.Skipped))
	}
	return b.String(), nil
}

// FormatReport renders a repository compliance report.
func (f *TableFormatter) FormatReport(report *repocheck.Report) (string, error) {
	var b strings.Builder

	b.WriteString(f.renderFindings(report.Findings))
	b.WriteString(fmt.Sprintf("%s\n", report.Summary))

	if !f.options.Quiet {
		b.WriteString(fmt.Sprintf("Repositories: %d checked, %d patched, %d skipped\n",
			report.Stats.Checked, report.Stats.Patched, report.Stats.Skipped))
	}
	return b.String(), nil
}

func (f *TableFormatter) renderFindings(findings []teamsync.Finding) string {
	if len(findings) == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"SEVERITY", "SUBJECT", "MESSAGE", "DETAILS"})

	for _, finding := range findings {
		t.AppendRow(table.Row{
			f.severityCell(finding.Severity),
			finding.Subject,
			finding.Message,
			renderDetails(finding.Details),
		})
	}
	return t.Render() + "\n"
}

func (f *TableFormatter) severityCell(severity teamsync.Severity) string {
	if !f.options.Color {
		return string(severity)
	}
	switch severity {
	case teamsync.SeverityError:
		return text.FgRed.Sprint(severity)
	case teamsync.SeverityWarning:
		return text.FgYellow.Sprint(severity)
	default:
		return text.FgGreen.Sprint(severity)
	}
}

// renderDetails flattens the detail map into a stable key=value listing.
func renderDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
