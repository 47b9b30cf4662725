package repocheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgsync/internal/teamsync"
)

// fakeRepoProvider is an in-memory Provider recording mutating calls.
type fakeRepoProvider struct {
	mu sync.Mutex

	repos      map[string]*Repository
	protection map[string]*BranchProtection
	security   map[string]*SecuritySettings

	mutationCalls []string

	listErr       error
	settingsErr   map[string]error
	protectionErr map[string]error
}

func newFakeRepoProvider() *fakeRepoProvider {
	return &fakeRepoProvider{
		repos:         map[string]*Repository{},
		protection:    map[string]*BranchProtection{},
		security:      map[string]*SecuritySettings{},
		settingsErr:   map[string]error{},
		protectionErr: map[string]error{},
	}
}

func (f *fakeRepoProvider) seed(repo Repository) {
	f.repos[repo.Name] = &repo
	if _, ok := f.security[repo.Name]; !ok {
		f.security[repo.Name] = &SecuritySettings{}
	}
}

func (f *fakeRepoProvider) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.mutationCalls))
	copy(out, f.mutationCalls)
	return out
}

func (f *fakeRepoProvider) ListRepositories(ctx context.Context, owner string) ([]Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Repository, 0, len(f.repos))
	for _, r := range f.repos {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepoProvider) UpdateRepositorySettings(ctx context.Context, owner, repo string, patch SettingsPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutationCalls = append(f.mutationCalls, "settings "+repo)
	if err := f.settingsErr[repo]; err != nil {
		return err
	}
	r := f.repos[repo]
	if patch.AllowMergeCommit != nil {
		r.AllowMergeCommit = *patch.AllowMergeCommit
	}
	if patch.AllowSquashMerge != nil {
		r.AllowSquashMerge = *patch.AllowSquashMerge
	}
	if patch.AllowRebaseMerge != nil {
		r.AllowRebaseMerge = *patch.AllowRebaseMerge
	}
	if patch.DeleteBranchOnMerge != nil {
		r.DeleteBranchOnMerge = *patch.DeleteBranchOnMerge
	}
	if patch.Archived != nil {
		r.Archived = *patch.Archived
	}
	return nil
}

func (f *fakeRepoProvider) GetBranchProtection(ctx context.Context, owner, repo, branch string) (*BranchProtection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.protectionErr[repo]; err != nil {
		return nil, err
	}
	return f.protection[repo+"/"+branch], nil
}

func (f *fakeRepoProvider) UpdateBranchProtection(ctx context.Context, owner, repo, branch string, desired BranchProtection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutationCalls = append(f.mutationCalls, fmt.Sprintf("protect %s/%s", repo, branch))
	f.protection[repo+"/"+branch] = &desired
	return nil
}

func (f *fakeRepoProvider) GetSecuritySettings(ctx context.Context, owner, repo string) (*SecuritySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.security[repo], nil
}

func (f *fakeRepoProvider) EnableVulnerabilityAlerts(ctx context.Context, owner, repo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutationCalls = append(f.mutationCalls, "vuln-alerts "+repo)
	f.security[repo].VulnerabilityAlerts = true
	return nil
}

func (f *fakeRepoProvider) EnableAutomatedSecurityFixes(ctx context.Context, owner, repo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutationCalls = append(f.mutationCalls, "sec-fixes "+repo)
	f.security[repo].AutomatedSecurityFixes = true
	return nil
}

func boolptr(b bool) *bool { return &b }

func TestRunMergeMethodDrift(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "api", DefaultBranch: "main", AllowMergeCommit: true, AllowSquashMerge: true})
	provider.seed(Repository{Name: "web", DefaultBranch: "main", AllowSquashMerge: true})
	runner := NewRunner(provider, "acme")

	policy := Policy{MergeMethods: &MergeMethodPolicy{
		AllowMergeCommit: boolptr(false),
		AllowSquashMerge: boolptr(true),
	}}

	report := runner.Run(context.Background(), policy, Options{})
	require.False(t, report.HasErrors, "findings: %+v", report.Findings)

	assert.Equal(t, 2, report.Stats.Checked)
	assert.Equal(t, 1, report.Stats.Patched, "only the drifted repository is patched")
	assert.False(t, provider.repos["api"].AllowMergeCommit)
	assert.True(t, report.HasChanges)

	// Second run is a no-op.
	second := runner.Run(context.Background(), policy, Options{})
	assert.Equal(t, 0, second.Stats.Patched)
	assert.False(t, second.HasChanges)
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "api", DefaultBranch: "main", AllowMergeCommit: true})
	runner := NewRunner(provider, "acme")

	policy := Policy{
		MergeMethods:     &MergeMethodPolicy{AllowMergeCommit: boolptr(false)},
		BranchProtection: &BranchProtectionPolicy{RequiredReviews: 2},
		Security:         &SecurityPolicy{VulnerabilityAlerts: true},
	}

	report := runner.Run(context.Background(), policy, Options{DryRun: true})
	require.False(t, report.HasErrors, "findings: %+v", report.Findings)

	assert.True(t, report.HasChanges)
	assert.Empty(t, provider.mutations(), "dry-run must not call any mutating operation")
	assert.Contains(t, report.Summary, "Preview:")
}

func TestRunBranchProtection(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "api", DefaultBranch: "main"})
	runner := NewRunner(provider, "acme")

	policy := Policy{BranchProtection: &BranchProtectionPolicy{
		RequiredReviews:      2,
		DismissStaleReviews:  true,
		EnforceAdmins:        true,
		RequiredStatusChecks: []string{"build", "lint"},
	}}

	report := runner.Run(context.Background(), policy, Options{})
	require.False(t, report.HasErrors)
	assert.Equal(t, 1, report.Stats.Patched)

	protection := provider.protection["api/main"]
	require.NotNil(t, protection)
	assert.Equal(t, 2, protection.RequiredApprovingReviewCount)
	assert.True(t, protection.DismissStaleReviews)
	assert.Equal(t, []string{"build", "lint"}, protection.RequiredStatusChecks)

	second := runner.Run(context.Background(), policy, Options{})
	assert.Equal(t, 0, second.Stats.Patched, "matching protection must not be re-applied")
}

func TestRunSecurityEnablesMissingFeatures(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "api", DefaultBranch: "main"})
	provider.security["api"] = &SecuritySettings{VulnerabilityAlerts: true}
	runner := NewRunner(provider, "acme")

	policy := Policy{Security: &SecurityPolicy{VulnerabilityAlerts: true, AutomatedSecurityFixes: true}}

	report := runner.Run(context.Background(), policy, Options{})
	require.False(t, report.HasErrors)

	assert.Equal(t, []string{"sec-fixes api"}, provider.mutations(), "already-enabled features are not touched")
	assert.True(t, provider.security["api"].AutomatedSecurityFixes)
}

func TestRunArchival(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "legacy", DefaultBranch: "main"})
	provider.seed(Repository{Name: "attic", DefaultBranch: "main", Archived: true})
	runner := NewRunner(provider, "acme")

	policy := Policy{Archived: []string{"legacy"}}

	report := runner.Run(context.Background(), policy, Options{})
	require.False(t, report.HasErrors, "findings: %+v", report.Findings)

	assert.True(t, provider.repos["legacy"].Archived)

	warnings := 0
	for _, f := range report.Findings {
		if f.Severity == teamsync.SeverityWarning {
			warnings++
			assert.Equal(t, "attic", f.Subject)
		}
	}
	assert.Equal(t, 1, warnings, "unlisted archived repository is surfaced, not unarchived")
}

func TestRunPerRepoFailureIsolation(t *testing.T) {
	provider := newFakeRepoProvider()
	provider.seed(Repository{Name: "good", DefaultBranch: "main", AllowMergeCommit: true})
	provider.seed(Repository{Name: "bad", DefaultBranch: "main", AllowMergeCommit: true})
	provider.settingsErr["bad"] = errors.New("forbidden")
	runner := NewRunner(provider, "acme")

	policy := Policy{MergeMethods: &MergeMethodPolicy{AllowMergeCommit: boolptr(false)}}

	report := runner.Run(context.Background(), policy, Options{})

	assert.True(t, report.HasErrors)
	assert.Equal(t, 2, report.Stats.Checked)
	assert.Equal(t, 1, report.Stats.Patched)
	assert.False(t, provider.repos["good"].AllowMergeCommit)
}

func TestRunExcludeAndFatalListing(t *testing.T) {
	t.Run("excluded repositories are skipped", func(t *testing.T) {
		provider := newFakeRepoProvider()
		provider.seed(Repository{Name: "vendored", DefaultBranch: "main", AllowMergeCommit: true})
		runner := NewRunner(provider, "acme")

		policy := Policy{
			MergeMethods: &MergeMethodPolicy{AllowMergeCommit: boolptr(false)},
			Exclude:      []string{"vendored"},
		}

		report := runner.Run(context.Background(), policy, Options{})
		assert.Equal(t, 1, report.Stats.Skipped)
		assert.Equal(t, 0, report.Stats.Checked)
		assert.Empty(t, provider.mutations())
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		provider := newFakeRepoProvider()
		provider.listErr = errors.New("rate limited")
		runner := NewRunner(provider, "acme")

		report := runner.Run(context.Background(), Policy{Archived: []string{"x"}}, Options{})
		assert.True(t, report.HasErrors)
		assert.Equal(t, 0, report.Stats.Checked)
	})

	t.Run("missing owner is fatal", func(t *testing.T) {
		runner := NewRunner(newFakeRepoProvider(), "")
		report := runner.Run(context.Background(), Policy{Archived: []string{"x"}}, Options{})
		assert.True(t, report.HasErrors)
	})
}
