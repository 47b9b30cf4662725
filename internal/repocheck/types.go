package repocheck

import (
	"context"
	"slices"

	"orgsync/internal/teamsync"
)

// Repository is the slice of provider repository state the checks compare
// against policy.
type Repository struct {
	Name                string
	DefaultBranch       string
	Archived            bool
	AllowMergeCommit    bool
	AllowSquashMerge    bool
	AllowRebaseMerge    bool
	DeleteBranchOnMerge bool
}

// SettingsPatch is a partial repository settings update. Nil fields are not
// sent.
type SettingsPatch struct {
	AllowMergeCommit    *bool
	AllowSquashMerge    *bool
	AllowRebaseMerge    *bool
	DeleteBranchOnMerge *bool
	Archived            *bool
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.AllowMergeCommit == nil && p.AllowSquashMerge == nil &&
		p.AllowRebaseMerge == nil && p.DeleteBranchOnMerge == nil && p.Archived == nil
}

// BranchProtection is the observed protection of one branch, nil when the
// branch is not protected at all.
type BranchProtection struct {
	RequiredApprovingReviewCount int
	DismissStaleReviews          bool
	RequireCodeOwnerReviews      bool
	EnforceAdmins                bool

	// RequiredStatusChecks lists check contexts that must pass before
	// merging. Kept sorted for comparison.
	RequiredStatusChecks []string
}

// Equal compares two protection states. Status check contexts compare as
// sets.
func (b BranchProtection) Equal(other BranchProtection) bool {
	if b.RequiredApprovingReviewCount != other.RequiredApprovingReviewCount ||
		b.DismissStaleReviews != other.DismissStaleReviews ||
		b.RequireCodeOwnerReviews != other.RequireCodeOwnerReviews ||
		b.EnforceAdmins != other.EnforceAdmins {
		return false
	}
	left := slices.Clone(b.RequiredStatusChecks)
	right := slices.Clone(other.RequiredStatusChecks)
	slices.Sort(left)
	slices.Sort(right)
	return slices.Equal(left, right)
}

// SecuritySettings is the observed security posture of one repository.
type SecuritySettings struct {
	VulnerabilityAlerts    bool
	AutomatedSecurityFixes bool
}

// Provider is the remote-entity surface the checks consume. Implemented by
// internal/github; tests use in-package fakes.
type Provider interface {
	ListRepositories(ctx context.Context, owner string) ([]Repository, error)
	UpdateRepositorySettings(ctx context.Context, owner, repo string, patch SettingsPatch) error
	GetBranchProtection(ctx context.Context, owner, repo, branch string) (*BranchProtection, error)
	UpdateBranchProtection(ctx context.Context, owner, repo, branch string, desired BranchProtection) error
	GetSecuritySettings(ctx context.Context, owner, repo string) (*SecuritySettings, error)
	EnableVulnerabilityAlerts(ctx context.Context, owner, repo string) error
	EnableAutomatedSecurityFixes(ctx context.Context, owner, repo string) error
}

// Policy is the declarative compliance policy for an organization's
// repositories. Nil blocks disable the corresponding check.
type Policy struct {
	MergeMethods     *MergeMethodPolicy      `yaml:"merge_methods,omitempty" json:"merge_methods,omitempty"`
	BranchProtection *BranchProtectionPolicy `yaml:"branch_protection,omitempty" json:"branch_protection,omitempty"`
	Security         *SecurityPolicy         `yaml:"security,omitempty" json:"security,omitempty"`

	// Archived lists repositories that must be archived. Repositories found
	// archived without being listed are reported, never unarchived.
	Archived []string `yaml:"archived,omitempty" json:"archived,omitempty"`

	// Exclude names repositories the checks skip entirely.
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Enabled reports whether any check is configured.
func (p Policy) Enabled() bool {
	return p.MergeMethods != nil || p.BranchProtection != nil || p.Security != nil || len(p.Archived) > 0
}

// MergeMethodPolicy pins the allowed merge strategies.
type MergeMethodPolicy struct {
	AllowMergeCommit    *bool `yaml:"allow_merge_commit,omitempty" json:"allow_merge_commit,omitempty"`
	AllowSquashMerge    *bool `yaml:"allow_squash_merge,omitempty" json:"allow_squash_merge,omitempty"`
	AllowRebaseMerge    *bool `yaml:"allow_rebase_merge,omitempty" json:"allow_rebase_merge,omitempty"`
	DeleteBranchOnMerge *bool `yaml:"delete_branch_on_merge,omitempty" json:"delete_branch_on_merge,omitempty"`
}

// BranchProtectionPolicy describes the required protection of one branch.
// Branch empty means the repository's default branch.
type BranchProtectionPolicy struct {
	Branch                  string   `yaml:"branch,omitempty" json:"branch,omitempty"`
	RequiredReviews         int      `yaml:"required_reviews" json:"required_reviews"`
	DismissStaleReviews     bool     `yaml:"dismiss_stale_reviews,omitempty" json:"dismiss_stale_reviews,omitempty"`
	RequireCodeOwnerReviews bool     `yaml:"require_code_owner_reviews,omitempty" json:"require_code_owner_reviews,omitempty"`
	EnforceAdmins           bool     `yaml:"enforce_admins,omitempty" json:"enforce_admins,omitempty"`
	RequiredStatusChecks    []string `yaml:"required_status_checks,omitempty" json:"required_status_checks,omitempty"`
}

// SecurityPolicy requires security scanning features to be on.
type SecurityPolicy struct {
	VulnerabilityAlerts    bool `yaml:"vulnerability_alerts,omitempty" json:"vulnerability_alerts,omitempty"`
	AutomatedSecurityFixes bool `yaml:"automated_security_fixes,omitempty" json:"automated_security_fixes,omitempty"`
}

// Stats are the run-level counters for a check run.
type Stats struct {
	Checked int `json:"checked" yaml:"checked"`
	Patched int `json:"patched" yaml:"patched"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Report is the aggregate outcome of one compliance run. Findings reuse the
// teamsync shapes so both runs render through the same formatters.
type Report struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	DryRun     bool               `json:"dry_run" yaml:"dry_run"`
	HasChanges bool               `json:"has_changes" yaml:"has_changes"`
	HasErrors  bool               `json:"has_errors" yaml:"has_errors"`
	Findings   []teamsync.Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Summary    string             `json:"summary" yaml:"summary"`
	Stats      Stats              `json:"stats" yaml:"stats"`
}
