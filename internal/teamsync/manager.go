package teamsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"orgsync/pkg/logging"
)

// Manager orchestrates one reconciliation run: it resolves the owner and the
// desired state, fetches the observed team inventory, walks desired teams in
// declaration order, diffs each against observed state, applies changes, and
// aggregates everything into a SyncResult.
//
// The per-team loop is strictly sequential. Parent-team resolution reads the
// running inventory map, which includes teams created or updated earlier in
// the same loop, so configuration authors can declare parents before children
// and have the linkage resolve within a single run.
type Manager struct {
	provider Provider
	resolver *Resolver
	applier  *Applier

	// defaultOwner is the ambient organization used when Options.Owner is
	// empty.
	defaultOwner string
}

// NewManager creates a Manager for the given provider. defaultOwner may be
// empty; in that case every run must carry an explicit Options.Owner.
func NewManager(provider Provider, defaultOwner string) *Manager {
	return &Manager{
		provider:     provider,
		resolver:     NewResolver(provider),
		applier:      NewApplier(provider),
		defaultOwner: defaultOwner,
	}
}

// Options parameterize one reconciliation run.
type Options struct {
	// DryRun previews changes without issuing any mutating provider calls.
	DryRun bool

	// UnmanagedTeams selects what to do with provider teams that have no
	// counterpart in configuration. Defaults to UnmanagedIgnore.
	UnmanagedTeams UnmanagedPolicy

	// Owner overrides the Manager's ambient default organization.
	Owner string
}

// Sync runs one reconciliation. It is idempotent: a second run with no
// intervening external change reports HasChanges=false and zero creates or
// updates. All failure modes are represented as findings on the result; the
// returned result is never nil.
func (m *Manager) Sync(ctx context.Context, desired Desired, opts Options) *SyncResult {
	result := &SyncResult{RunID: uuid.NewString(), DryRun: opts.DryRun}

	owner := opts.Owner
	if owner == "" {
		owner = m.defaultOwner
	}
	if owner == "" {
		result.errorf("", "no organization configured: set an owner in configuration or pass one explicitly")
		result.Summary = summarize(result)
		return result
	}

	logging.Info("TeamSync", "starting run %s for %s (dry-run=%t)", result.RunID, owner, opts.DryRun)

	resolution, err := m.resolver.Resolve(ctx, owner, desired)
	if err != nil {
		result.errorf("", "failed to resolve desired team state: %v", err)
		result.Summary = summarize(result)
		return result
	}
	for _, f := range resolution.Findings {
		result.addFinding(f)
	}

	inventory, observedSlugs, err := m.fetchInventory(ctx, owner)
	if err != nil {
		result.errorf("", "failed to list current teams for %s: %v", owner, err)
		result.Summary = summarize(result)
		return result
	}

	processed := make(map[string]struct{})
	for _, team := range resolution.Teams() {
		slug := Slugify(team.Definition.Name)
		processed[slug] = struct{}{}
		result.Stats.Processed++

		m.reconcileTeam(ctx, owner, team, slug, inventory, opts, result)
	}

	m.detectUnmanaged(observedSlugs, processed, opts.UnmanagedTeams, result)

	result.Summary = summarize(result)
	logging.Info("TeamSync", "run %s finished: %s", result.RunID, result.Summary)
	return result
}

// fetchInventory enumerates all current teams and indexes them by slug. The
// map doubles as the running inventory updated after each successful apply.
// observedSlugs keeps the pre-run view for unmanaged-team detection.
func (m *Manager) fetchInventory(ctx context.Context, owner string) (map[string]TeamSummary, map[string]struct{}, error) {
	teams, err := m.provider.ListTeams(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	inventory := make(map[string]TeamSummary, len(teams))
	observed := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		inventory[t.Slug] = t
		observed[t.Slug] = struct{}{}
	}
	logging.Debug("TeamSync", "observed %d existing teams in %s", len(teams), owner)
	return inventory, observed, nil
}

func (m *Manager) reconcileTeam(ctx context.Context, owner string, team ResolvedTeam, slug string, inventory map[string]TeamSummary, opts Options, result *SyncResult) {
	def := team.Definition

	var observed *ObservedTeamState
	if summary, ok := inventory[slug]; ok {
		members, err := m.provider.ListTeamMembers(ctx, owner, slug)
		if err != nil {
			result.errorf(def.Name, "failed to load current members of team %s: %v", slug, err)
			return
		}
		observed = &ObservedTeamState{TeamSummary: summary, Members: members}
	}

	parentID, parentSlug := m.resolveParent(def, inventory, result)

	diff := Diff(def, slug, team.Members, team.ManageMembers(), observed, parentID, parentSlug)

	if diff.Exists && diff.Changes.Empty() {
		result.Stats.Skipped++
		result.infof(def.Name, "team %s is up to date", slug)
		return
	}
	result.HasChanges = true

	outcome, err := m.applier.Apply(ctx, diff, ApplyOptions{DryRun: opts.DryRun, Owner: owner})
	if err != nil {
		result.errorf(def.Name, "failed to apply changes to team %s: %v", slug, err)
		return
	}

	// Make the result visible to later iterations so children can resolve
	// this team as their parent.
	inventory[outcome.Slug] = TeamSummary{
		ID:         outcome.TeamID,
		Slug:       outcome.Slug,
		Name:       def.Name,
		ParentSlug: parentSlug,
	}
	if observed != nil {
		refreshed := observed.TeamSummary
		if parentSlug != "" {
			refreshed.ParentSlug = parentSlug
		}
		inventory[outcome.Slug] = refreshed
	}

	switch {
	case outcome.Created:
		result.Stats.Created++
		result.infof(def.Name, "created team %s with %d members", outcome.Slug, len(diff.Changes.MembersToAdd))
	case outcome.Changed():
		result.Stats.Updated++
		if outcome.UpdatedMetadata {
			result.infof(def.Name, "updated metadata of team %s: %s", outcome.Slug, describeMetadata(diff.Changes.Metadata))
		}
		if outcome.UpdatedMembers {
			result.infof(def.Name, "updated membership of team %s (+%d/-%d/~%d)",
				outcome.Slug, len(diff.Changes.MembersToAdd), len(diff.Changes.MembersToRemove), len(diff.Changes.MembersToUpdateRole))
		}
	}
}

// resolveParent looks the declared parent up in the running inventory. A
// missing parent is a best-effort relationship, not a hard dependency: the
// team is still reconciled, just without the linkage.
func (m *Manager) resolveParent(def TeamDefinition, inventory map[string]TeamSummary, result *SyncResult) (*int64, string) {
	if def.Parent == nil {
		return nil, ""
	}
	parentSlug := Slugify(*def.Parent)
	parent, ok := inventory[parentSlug]
	if !ok {
		result.warnf(def.Name, "parent team %q (slug %s) not found, continuing without parent linkage", *def.Parent, parentSlug)
		return nil, ""
	}
	if parent.ID == 0 {
		// Parent only exists as a dry-run placeholder; keep the slug for
		// diffing but there is no provider id to link against.
		return nil, parentSlug
	}
	id := parent.ID
	return &id, parentSlug
}

func (m *Manager) detectUnmanaged(observed map[string]struct{}, processed map[string]struct{}, policy UnmanagedPolicy, result *SyncResult) {
	var unmanaged []string
	for slug := range observed {
		if _, ok := processed[slug]; !ok {
			unmanaged = append(unmanaged, slug)
		}
	}
	if len(unmanaged) == 0 {
		return
	}
	sort.Strings(unmanaged)

	switch policy {
	case UnmanagedWarn:
		result.addFinding(Finding{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d teams exist at the provider but are not managed by configuration: %v", len(unmanaged), unmanaged),
			Details:  map[string]any{"teams": unmanaged},
		})
	case UnmanagedRemove:
		result.addFinding(Finding{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unmanaged team removal is not implemented; %d teams left in place: %v", len(unmanaged), unmanaged),
			Details:  map[string]any{"teams": unmanaged},
		})
	default:
		// UnmanagedIgnore: nothing to report.
	}
}

func describeMetadata(metadata map[string]FieldDelta) string {
	fields := make([]string, 0, len(metadata))
	for f := range metadata {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %q -> %q", f, metadata[f].Old, metadata[f].New)
	}
	return out
}

func summarize(result *SyncResult) string {
	prefix := "Applied:"
	if result.DryRun {
		prefix = "Preview:"
	}
	s := result.Stats
	return fmt.Sprintf("%s %d teams processed, %d created, %d updated, %d removed, %d up to date, errors=%t",
		prefix, s.Processed, s.Created, s.Updated, s.Removed, s.Skipped, result.HasErrors)
}
