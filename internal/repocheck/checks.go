package repocheck

import (
	"context"
	"fmt"
	"slices"

	"orgsync/internal/teamsync"
	"orgsync/pkg/logging"
)

// checkContext carries the per-repository inputs shared by all checks.
type checkContext struct {
	provider Provider
	owner    string
	repo     Repository
	dryRun   bool
}

// check is one fetch-compare-patch unit. Run returns the findings for this
// repository and whether it patched anything.
type check interface {
	name() string
	run(ctx context.Context, c checkContext) ([]teamsync.Finding, bool, error)
}

// mergeMethodsCheck pins the repository's allowed merge strategies.
type mergeMethodsCheck struct {
	policy MergeMethodPolicy
}

func (mergeMethodsCheck) name() string { return "merge-methods" }

func (m mergeMethodsCheck) run(ctx context.Context, c checkContext) ([]teamsync.Finding, bool, error) {
	var patch SettingsPatch
	var drift []string

	if m.policy.AllowMergeCommit != nil && *m.policy.AllowMergeCommit != c.repo.AllowMergeCommit {
		patch.AllowMergeCommit = m.policy.AllowMergeCommit
		drift = append(drift, fmt.Sprintf("allow_merge_commit %t -> %t", c.repo.AllowMergeCommit, *m.policy.AllowMergeCommit))
	}
	if m.policy.AllowSquashMerge != nil && *m.policy.AllowSquashMerge != c.repo.AllowSquashMerge {
		patch.AllowSquashMerge = m.policy.AllowSquashMerge
		drift = append(drift, fmt.Sprintf("allow_squash_merge %t -> %t", c.repo.AllowSquashMerge, *m.policy.AllowSquashMerge))
	}
	if m.policy.AllowRebaseMerge != nil && *m.policy.AllowRebaseMerge != c.repo.AllowRebaseMerge {
		patch.AllowRebaseMerge = m.policy.AllowRebaseMerge
		drift = append(drift, fmt.Sprintf("allow_rebase_merge %t -> %t", c.repo.AllowRebaseMerge, *m.policy.AllowRebaseMerge))
	}
	if m.policy.DeleteBranchOnMerge != nil && *m.policy.DeleteBranchOnMerge != c.repo.DeleteBranchOnMerge {
		patch.DeleteBranchOnMerge = m.policy.DeleteBranchOnMerge
		drift = append(drift, fmt.Sprintf("delete_branch_on_merge %t -> %t", c.repo.DeleteBranchOnMerge, *m.policy.DeleteBranchOnMerge))
	}

	if patch.Empty() {
		return nil, false, nil
	}
	if c.dryRun {
		return []teamsync.Finding{infoFinding(c.repo.Name, "would update merge settings: %v", drift)}, true, nil
	}
	if err := c.provider.UpdateRepositorySettings(ctx, c.owner, c.repo.Name, patch); err != nil {
		return nil, false, err
	}
	return []teamsync.Finding{infoFinding(c.repo.Name, "updated merge settings: %v", drift)}, true, nil
}

// branchProtectionCheck enforces protection on one branch.
type branchProtectionCheck struct {
	policy BranchProtectionPolicy
}

func (branchProtectionCheck) name() string { return "branch-protection" }

func (b branchProtectionCheck) run(ctx context.Context, c checkContext) ([]teamsync.Finding, bool, error) {
	branch := b.policy.Branch
	if branch == "" {
		branch = c.repo.DefaultBranch
	}
	if branch == "" {
		return []teamsync.Finding{warnFinding(c.repo.Name, "repository has no default branch, skipping branch protection")}, false, nil
	}

	observed, err := c.provider.GetBranchProtection(ctx, c.owner, c.repo.Name, branch)
	if err != nil {
		return nil, false, fmt.Errorf("loading protection of %s: %w", branch, err)
	}

	desired := BranchProtection{
		RequiredApprovingReviewCount: b.policy.RequiredReviews,
		DismissStaleReviews:          b.policy.DismissStaleReviews,
		RequireCodeOwnerReviews:      b.policy.RequireCodeOwnerReviews,
		EnforceAdmins:                b.policy.EnforceAdmins,
		RequiredStatusChecks:         b.policy.RequiredStatusChecks,
	}
	if observed != nil && observed.Equal(desired) {
		return nil, false, nil
	}

	if c.dryRun {
		return []teamsync.Finding{infoFinding(c.repo.Name, "would enforce protection on branch %s (%d required reviews)", branch, desired.RequiredApprovingReviewCount)}, true, nil
	}
	if err := c.provider.UpdateBranchProtection(ctx, c.owner, c.repo.Name, branch, desired); err != nil {
		return nil, false, fmt.Errorf("updating protection of %s: %w", branch, err)
	}
	return []teamsync.Finding{infoFinding(c.repo.Name, "enforced protection on branch %s (%d required reviews)", branch, desired.RequiredApprovingReviewCount)}, true, nil
}

// securityCheck turns on required security scanning features. It only ever
// enables; disabling is left to humans.
type securityCheck struct {
	policy SecurityPolicy
}

func (securityCheck) name() string { return "security" }

func (s securityCheck) run(ctx context.Context, c checkContext) ([]teamsync.Finding, bool, error) {
	observed, err := c.provider.GetSecuritySettings(ctx, c.owner, c.repo.Name)
	if err != nil {
		return nil, false, fmt.Errorf("loading security settings: %w", err)
	}

	var findings []teamsync.Finding
	changed := false

	if s.policy.VulnerabilityAlerts && !observed.VulnerabilityAlerts {
		changed = true
		if c.dryRun {
			findings = append(findings, infoFinding(c.repo.Name, "would enable vulnerability alerts"))
		} else if err := c.provider.EnableVulnerabilityAlerts(ctx, c.owner, c.repo.Name); err != nil {
			return findings, changed, fmt.Errorf("enabling vulnerability alerts: %w", err)
		} else {
			findings = append(findings, infoFinding(c.repo.Name, "enabled vulnerability alerts"))
		}
	}

	if s.policy.AutomatedSecurityFixes && !observed.AutomatedSecurityFixes {
		changed = true
		if c.dryRun {
			findings = append(findings, infoFinding(c.repo.Name, "would enable automated security fixes"))
		} else if err := c.provider.EnableAutomatedSecurityFixes(ctx, c.owner, c.repo.Name); err != nil {
			return findings, changed, fmt.Errorf("enabling automated security fixes: %w", err)
		} else {
			findings = append(findings, infoFinding(c.repo.Name, "enabled automated security fixes"))
		}
	}

	return findings, changed, nil
}

// archivalCheck enforces the archived list: listed repositories must be
// archived. Archived repositories not on the list are surfaced but never
// unarchived.
type archivalCheck struct {
	archived []string
}

func (archivalCheck) name() string { return "archival" }

func (a archivalCheck) run(ctx context.Context, c checkContext) ([]teamsync.Finding, bool, error) {
	listed := slices.Contains(a.archived, c.repo.Name)

	switch {
	case listed && !c.repo.Archived:
		if c.dryRun {
			return []teamsync.Finding{infoFinding(c.repo.Name, "would archive repository")}, true, nil
		}
		archived := true
		if err := c.provider.UpdateRepositorySettings(ctx, c.owner, c.repo.Name, SettingsPatch{Archived: &archived}); err != nil {
			return nil, false, fmt.Errorf("archiving: %w", err)
		}
		logging.Info("RepoCheck", "archived repository %s/%s", c.owner, c.repo.Name)
		return []teamsync.Finding{infoFinding(c.repo.Name, "archived repository")}, true, nil

	case !listed && c.repo.Archived:
		return []teamsync.Finding{warnFinding(c.repo.Name, "repository is archived but not listed in the archival policy")}, false, nil
	}
	return nil, false, nil
}

func infoFinding(repo, format string, args ...any) teamsync.Finding {
	return teamsync.Finding{Severity: teamsync.SeverityInfo, Subject: repo, Message: fmt.Sprintf(format, args...)}
}

func warnFinding(repo, format string, args ...any) teamsync.Finding {
	return teamsync.Finding{Severity: teamsync.SeverityWarning, Subject: repo, Message: fmt.Sprintf(format, args...)}
}
