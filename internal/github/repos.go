package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v74/github"

	"orgsync/internal/repocheck"
	"orgsync/pkg/logging"
)

// ListRepositories enumerates all repositories of the organization.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]repocheck.Repository, error) {
	return cached(c.cache, "repos/"+owner, func() ([]repocheck.Repository, error) {
		var out []repocheck.Repository
		opts := &gh.RepositoryListByOrgOptions{ListOptions: gh.ListOptions{PerPage: defaultPageSize}}
		for {
			repos, resp, err := c.api.Repositories.ListByOrg(ctx, owner, opts)
			if err != nil {
				return nil, fmt.Errorf("listing repositories of %s: %w", owner, err)
			}
			for _, r := range repos {
				out = append(out, repocheck.Repository{
					Name:                r.GetName(),
					DefaultBranch:       r.GetDefaultBranch(),
					Archived:            r.GetArchived(),
					AllowMergeCommit:    r.GetAllowMergeCommit(),
					AllowSquashMerge:    r.GetAllowSquashMerge(),
					AllowRebaseMerge:    r.GetAllowRebaseMerge(),
					DeleteBranchOnMerge: r.GetDeleteBranchOnMerge(),
				})
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		logging.Debug("GitHub", "listed %d repositories for %s", len(out), owner)
		return out, nil
	})
}

// UpdateRepositorySettings applies a partial settings patch.
func (c *Client) UpdateRepositorySettings(ctx context.Context, owner, repo string, patch repocheck.SettingsPatch) error {
	payload := &gh.Repository{
		AllowMergeCommit:    patch.AllowMergeCommit,
		AllowSquashMerge:    patch.AllowSquashMerge,
		AllowRebaseMerge:    patch.AllowRebaseMerge,
		DeleteBranchOnMerge: patch.DeleteBranchOnMerge,
		Archived:            patch.Archived,
	}
	if _, _, err := c.api.Repositories.Edit(ctx, owner, repo, payload); err != nil {
		return fmt.Errorf("updating settings of %s/%s: %w", owner, repo, err)
	}
	c.cache.invalidate("repos/" + owner)
	return nil
}

// GetBranchProtection fetches the protection of one branch, or nil when the
// branch is not protected.
func (c *Client) GetBranchProtection(ctx context.Context, owner, repo, branch string) (*repocheck.BranchProtection, error) {
	protection, _, err := c.api.Repositories.GetBranchProtection(ctx, owner, repo, branch)
	if err != nil {
		if errors.Is(err, gh.ErrBranchNotProtected) || isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching protection of %s/%s@%s: %w", owner, repo, branch, err)
	}

	out := &repocheck.BranchProtection{}
	if reviews := protection.GetRequiredPullRequestReviews(); reviews != nil {
		out.RequiredApprovingReviewCount = reviews.RequiredApprovingReviewCount
		out.DismissStaleReviews = reviews.DismissStaleReviews
		out.RequireCodeOwnerReviews = reviews.RequireCodeOwnerReviews
	}
	if admins := protection.GetEnforceAdmins(); admins != nil {
		out.EnforceAdmins = admins.Enabled
	}
	if checks := protection.GetRequiredStatusChecks(); checks != nil && checks.Contexts != nil {
		out.RequiredStatusChecks = *checks.Contexts
	}
	return out, nil
}

// UpdateBranchProtection enforces the desired protection on one branch.
func (c *Client) UpdateBranchProtection(ctx context.Context, owner, repo, branch string, desired repocheck.BranchProtection) error {
	req := &gh.ProtectionRequest{
		RequiredPullRequestReviews: &gh.PullRequestReviewsEnforcementRequest{
			RequiredApprovingReviewCount: desired.RequiredApprovingReviewCount,
			DismissStaleReviews:          desired.DismissStaleReviews,
			RequireCodeOwnerReviews:      desired.RequireCodeOwnerReviews,
		},
		EnforceAdmins: desired.EnforceAdmins,
	}
	if len(desired.RequiredStatusChecks) > 0 {
		contexts := desired.RequiredStatusChecks
		req.RequiredStatusChecks = &gh.RequiredStatusChecks{Contexts: &contexts}
	}
	if _, _, err := c.api.Repositories.UpdateBranchProtection(ctx, owner, repo, branch, req); err != nil {
		return fmt.Errorf("updating protection of %s/%s@%s: %w", owner, repo, branch, err)
	}
	return nil
}

// GetSecuritySettings reports which security scanning features are enabled.
func (c *Client) GetSecuritySettings(ctx context.Context, owner, repo string) (*repocheck.SecuritySettings, error) {
	out := &repocheck.SecuritySettings{}

	alerts, _, err := c.api.Repositories.GetVulnerabilityAlerts(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetching vulnerability alert state of %s/%s: %w", owner, repo, err)
	}
	out.VulnerabilityAlerts = alerts

	fixes, _, err := c.api.Repositories.GetAutomatedSecurityFixes(ctx, owner, repo)
	if err != nil {
		if isNotFound(err) {
			return out, nil
		}
		return nil, fmt.Errorf("fetching automated security fix state of %s/%s: %w", owner, repo, err)
	}
	out.AutomatedSecurityFixes = fixes.GetEnabled()
	return out, nil
}

// EnableVulnerabilityAlerts turns on vulnerability alerts.
func (c *Client) EnableVulnerabilityAlerts(ctx context.Context, owner, repo string) error {
	if _, err := c.api.Repositories.EnableVulnerabilityAlerts(ctx, owner, repo); err != nil {
		return fmt.Errorf("enabling vulnerability alerts on %s/%s: %w", owner, repo, err)
	}
	return nil
}

// EnableAutomatedSecurityFixes turns on automated security fixes.
func (c *Client) EnableAutomatedSecurityFixes(ctx context.Context, owner, repo string) error {
	if _, err := c.api.Repositories.EnableAutomatedSecurityFixes(ctx, owner, repo); err != nil {
		return fmt.Errorf("enabling automated security fixes on %s/%s: %w", owner, repo, err)
	}
	return nil
}
