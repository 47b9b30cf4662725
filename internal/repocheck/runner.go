package repocheck

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orgsync/internal/teamsync"
	"orgsync/pkg/logging"
)

const defaultConcurrency = 4

// Options parameterize one compliance run.
type Options struct {
	// DryRun previews patches without issuing any mutating provider calls.
	DryRun bool

	// Owner overrides the Runner's ambient default organization.
	Owner string

	// Concurrency bounds how many repositories are checked in parallel.
	// Zero uses a small default. Unlike teams, repositories have no
	// cross-entity ordering dependency.
	Concurrency int
}

// Runner walks all repositories of an organization and applies the
// configured fetch-compare-patch checks to each.
type Runner struct {
	provider     Provider
	defaultOwner string
}

// NewRunner creates a Runner for the given provider.
func NewRunner(provider Provider, defaultOwner string) *Runner {
	return &Runner{provider: provider, defaultOwner: defaultOwner}
}

// Run executes all configured checks. Per-repository failures become error
// findings; only the repository listing itself is fatal to the run. The
// returned report is never nil.
func (r *Runner) Run(ctx context.Context, policy Policy, opts Options) *Report {
	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun}

	owner := opts.Owner
	if owner == "" {
		owner = r.defaultOwner
	}
	if owner == "" {
		report.HasErrors = true
		report.Findings = append(report.Findings, teamsync.Finding{
			Severity: teamsync.SeverityError,
			Message:  "no organization configured: set an owner in configuration or pass one explicitly",
		})
		report.Summary = summarize(report)
		return report
	}

	checks := buildChecks(policy)
	if len(checks) == 0 {
		report.Summary = summarize(report)
		return report
	}

	repos, err := r.provider.ListRepositories(ctx, owner)
	if err != nil {
		report.HasErrors = true
		report.Findings = append(report.Findings, teamsync.Finding{
			Severity: teamsync.SeverityError,
			Message:  fmt.Sprintf("failed to list repositories of %s: %v", owner, err),
		})
		report.Summary = summarize(report)
		return report
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	logging.Info("RepoCheck", "run %s: checking %d repositories in %s (dry-run=%t)", report.RunID, len(repos), owner, opts.DryRun)

	type repoResult struct {
		name     string
		findings []teamsync.Finding
		patched  bool
		skipped  bool
	}

	var mu sync.Mutex
	results := make([]repoResult, 0, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, repo := range repos {
		g.Go(func() error {
			res := repoResult{name: repo.Name}

			if slices.Contains(policy.Exclude, repo.Name) {
				res.skipped = true
			} else {
				cc := checkContext{provider: r.provider, owner: owner, repo: repo, dryRun: opts.DryRun}
				for _, chk := range checks {
					// Archived repositories only get the archival check;
					// patching settings on them would fail anyway.
					if repo.Archived && chk.name() != "archival" {
						continue
					}
					findings, patched, err := chk.run(gctx, cc)
					res.findings = append(res.findings, findings...)
					res.patched = res.patched || patched
					if err != nil {
						res.findings = append(res.findings, teamsync.Finding{
							Severity: teamsync.SeverityError,
							Subject:  repo.Name,
							Message:  fmt.Sprintf("check %s failed: %v", chk.name(), err),
						})
					}
				}
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are findings.
	_ = g.Wait()

	// Deterministic report order regardless of worker scheduling.
	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })
	for _, res := range results {
		if res.skipped {
			report.Stats.Skipped++
			continue
		}
		report.Stats.Checked++
		if res.patched {
			report.Stats.Patched++
			report.HasChanges = true
		}
		for _, f := range res.findings {
			if f.Severity == teamsync.SeverityError {
				report.HasErrors = true
			}
			report.Findings = append(report.Findings, f)
		}
	}

	report.Summary = summarize(report)
	logging.Info("RepoCheck", "run %s finished: %s", report.RunID, report.Summary)
	return report
}

func buildChecks(policy Policy) []check {
	var checks []check
	if policy.MergeMethods != nil {
		checks = append(checks, mergeMethodsCheck{policy: *policy.MergeMethods})
	}
	if policy.BranchProtection != nil {
		checks = append(checks, branchProtectionCheck{policy: *policy.BranchProtection})
	}
	if policy.Security != nil {
		checks = append(checks, securityCheck{policy: *policy.Security})
	}
	if len(policy.Archived) > 0 {
		checks = append(checks, archivalCheck{archived: policy.Archived})
	}
	return checks
}

func summarize(report *Report) string {
	prefix := "Applied:"
	if report.DryRun {
		prefix = "Preview:"
	}
	s := report.Stats
	return fmt.Sprintf("%s %d repositories checked, %d patched, %d skipped, errors=%t",
		prefix, s.Checked, s.Patched, s.Skipped, report.HasErrors)
}
