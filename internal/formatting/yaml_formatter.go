package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// FormatSyncResult renders the result as YAML.
func (f *YAMLFormatter) FormatSyncResult(result *teamsync.SyncResult) (string, error) {
	return marshalYAML(result)
}

// FormatReport renders the report as YAML.
func (f *YAMLFormatter) FormatReport(report *repocheck.Report) (string, error) {
	return marshalYAML(report)
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding result as YAML: %w", err)
	}
	return string(data), nil
}
