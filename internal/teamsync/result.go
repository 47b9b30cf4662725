package teamsync

import "fmt"

// Severity classifies a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one reportable fact about a run: something that changed, a
// known limitation that was hit, or a failure. Findings are the sole
// reporting surface; no errors escape Sync for in-run failures.
type Finding struct {
	Severity Severity       `json:"severity" yaml:"severity"`
	Subject  string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	Message  string         `json:"message" yaml:"message"`
	Details  map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Stats are the run-level counters.
type Stats struct {
	Processed int `json:"processed" yaml:"processed"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Removed   int `json:"removed" yaml:"removed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// SyncResult is the aggregate outcome of one reconciliation run.
type SyncResult struct {
	// RunID correlates findings with interleaved log output.
	RunID string `json:"run_id" yaml:"run_id"`

	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	HasChanges bool      `json:"has_changes" yaml:"has_changes"`
	HasErrors  bool      `json:"has_errors" yaml:"has_errors"`
	Findings   []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Summary    string    `json:"summary" yaml:"summary"`
	Stats      Stats     `json:"stats" yaml:"stats"`
}

func (r *SyncResult) addFinding(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityError {
		r.HasErrors = true
	}
}

func (r *SyncResult) infof(subject, format string, args ...any) {
	r.addFinding(Finding{Severity: SeverityInfo, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *SyncResult) warnf(subject, format string, args ...any) {
	r.addFinding(Finding{Severity: SeverityWarning, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *SyncResult) errorf(subject, format string, args ...any) {
	r.addFinding(Finding{Severity: SeverityError, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// SyncOutcome is the per-team result of applying a TeamDiff.
type SyncOutcome struct {
	Created         bool
	UpdatedMetadata bool
	UpdatedMembers  bool

	// Slug is the resolved slug of the team after the apply, used to refresh
	// the running inventory for later parent lookups.
	Slug string

	// TeamID is the provider id of a created team (0 in dry-run mode).
	TeamID int64
}

// Changed reports whether the apply did anything.
func (o SyncOutcome) Changed() bool {
	return o.Created || o.UpdatedMetadata || o.UpdatedMembers
}
