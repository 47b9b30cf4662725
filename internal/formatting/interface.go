// Package formatting renders reconciliation results for the CLI.
//
// The same SyncResult and Report values render as a rich table for humans,
// or as JSON / YAML for scripting and CI pipelines. All formatters return
// strings; writing to the terminal stays in cmd.
package formatting

import (
	"fmt"

	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// Formatter renders run results in one output format.
type Formatter interface {
	FormatSyncResult(result *teamsync.SyncResult) (string, error)
	FormatReport(report *repocheck.Report) (string, error)
}

// NewFormatter creates the formatter for the requested format.
func NewFormatter(options Options) (Formatter, error) {
	switch options.Format {
	case FormatTable, "":
		return &TableFormatter{options: options}, nil
	case FormatJSON:
		return &JSONFormatter{options: options}, nil
	case FormatYAML:
		return &YAMLFormatter{options: options}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: table, json, yaml)", options.Format)
	}
}
