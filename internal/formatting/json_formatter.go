package formatting

import (
	"encoding/json"
	"fmt"

	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// FormatSyncResult renders the result as indented JSON.
func (f *JSONFormatter) FormatSyncResult(result *teamsync.SyncResult) (string, error) {
	return marshalJSON(result)
}

// FormatReport renders the report as indented JSON.
func (f *JSONFormatter) FormatReport(report *repocheck.Report) (string, error) {
	return marshalJSON(report)
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result as JSON: %w", err)
	}
	return string(data) + "\n", nil
}
