package teamsync

import (
	"context"
	"errors"
	"fmt"

	"orgsync/pkg/logging"
)

// Applier translates a TeamDiff into the minimal sequence of provider
// mutations. In dry-run mode it performs zero mutating calls and instead
// logs one line per intended action, returning the same outcome shape so the
// Manager's bookkeeping is mode-agnostic.
type Applier struct {
	provider Provider
}

// NewApplier creates an Applier issuing mutations through the given provider.
func NewApplier(provider Provider) *Applier {
	return &Applier{provider: provider}
}

// ApplyOptions parameterize one apply call.
type ApplyOptions struct {
	DryRun bool
	Owner  string
}

// Apply executes a diff. Each mutating call is independent: a failed
// membership call does not prevent the remaining ones from being attempted.
// The returned outcome reflects what actually happened even when an error is
// also returned.
func (a *Applier) Apply(ctx context.Context, diff TeamDiff, opts ApplyOptions) (SyncOutcome, error) {
	if !diff.Exists {
		return a.create(ctx, diff, opts)
	}
	return a.update(ctx, diff, opts)
}

func (a *Applier) create(ctx context.Context, diff TeamDiff, opts ApplyOptions) (SyncOutcome, error) {
	outcome := SyncOutcome{Created: true, Slug: diff.Slug}

	if opts.DryRun {
		logging.Info("SyncApplier", "[dry-run] would create team %q (slug %s) with %d members", diff.Name, diff.Slug, len(diff.Changes.MembersToAdd))
		return outcome, nil
	}

	created, err := a.provider.CreateTeam(ctx, opts.Owner, NewTeam{
		Name:                diff.Name,
		Description:         deltaValue(diff.Changes.Metadata, FieldDescription),
		Privacy:             privacyDelta(diff.Changes.Metadata),
		NotificationSetting: deltaValue(diff.Changes.Metadata, FieldNotificationSetting),
		ParentTeamID:        diff.ParentTeamID,
	})
	if err != nil {
		return SyncOutcome{}, fmt.Errorf("creating team %q: %w", diff.Name, err)
	}
	outcome.Slug = created.Slug
	outcome.TeamID = created.ID
	logging.Info("SyncApplier", "created team %q (slug %s)", diff.Name, created.Slug)

	if memberErr := a.applyMembership(ctx, diff, outcome.Slug, opts, &outcome); memberErr != nil {
		return outcome, memberErr
	}
	return outcome, nil
}

func (a *Applier) update(ctx context.Context, diff TeamDiff, opts ApplyOptions) (SyncOutcome, error) {
	outcome := SyncOutcome{Slug: diff.Slug}

	if len(diff.Changes.Metadata) > 0 {
		if opts.DryRun {
			for field, delta := range diff.Changes.Metadata {
				logging.Info("SyncApplier", "[dry-run] would set %s of team %s: %q -> %q", field, diff.Slug, delta.Old, delta.New)
			}
			outcome.UpdatedMetadata = true
		} else {
			meta := TeamMetadata{
				Description:         deltaValue(diff.Changes.Metadata, FieldDescription),
				Privacy:             privacyDelta(diff.Changes.Metadata),
				NotificationSetting: deltaValue(diff.Changes.Metadata, FieldNotificationSetting),
			}
			if _, ok := diff.Changes.Metadata[FieldParent]; ok {
				meta.ParentTeamID = diff.ParentTeamID
			}
			if err := a.provider.UpdateTeam(ctx, opts.Owner, diff.Slug, meta); err != nil {
				return outcome, fmt.Errorf("updating team %s: %w", diff.Slug, err)
			}
			outcome.UpdatedMetadata = true
			logging.Info("SyncApplier", "updated metadata of team %s (%d fields)", diff.Slug, len(diff.Changes.Metadata))
		}
	}

	if err := a.applyMembership(ctx, diff, diff.Slug, opts, &outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// applyMembership issues the add/update/remove membership calls for a diff.
// Failures are collected per call and joined; every call is attempted.
func (a *Applier) applyMembership(ctx context.Context, diff TeamDiff, slug string, opts ApplyOptions, outcome *SyncOutcome) error {
	var errs []error

	for _, m := range diff.Changes.MembersToAdd {
		if opts.DryRun {
			logging.Info("SyncApplier", "[dry-run] would add %s to team %s as %s", m.Username, slug, m.Role)
			outcome.UpdatedMembers = true
			continue
		}
		if err := a.provider.AddTeamMembership(ctx, opts.Owner, slug, m.Username, m.Role); err != nil {
			errs = append(errs, fmt.Errorf("adding %s to %s: %w", m.Username, slug, err))
			continue
		}
		outcome.UpdatedMembers = true
	}

	for _, m := range diff.Changes.MembersToUpdateRole {
		if opts.DryRun {
			logging.Info("SyncApplier", "[dry-run] would change role of %s in team %s to %s", m.Username, slug, m.Role)
			outcome.UpdatedMembers = true
			continue
		}
		if err := a.provider.AddTeamMembership(ctx, opts.Owner, slug, m.Username, m.Role); err != nil {
			errs = append(errs, fmt.Errorf("updating role of %s in %s: %w", m.Username, slug, err))
			continue
		}
		outcome.UpdatedMembers = true
	}

	for _, username := range diff.Changes.MembersToRemove {
		if opts.DryRun {
			logging.Info("SyncApplier", "[dry-run] would remove %s from team %s", username, slug)
			outcome.UpdatedMembers = true
			continue
		}
		if err := a.provider.RemoveTeamMembership(ctx, opts.Owner, slug, username); err != nil {
			errs = append(errs, fmt.Errorf("removing %s from %s: %w", username, slug, err))
			continue
		}
		outcome.UpdatedMembers = true
	}

	return errors.Join(errs...)
}

func deltaValue(metadata map[string]FieldDelta, field string) *string {
	if delta, ok := metadata[field]; ok {
		v := delta.New
		return &v
	}
	return nil
}

func privacyDelta(metadata map[string]FieldDelta) *Privacy {
	if delta, ok := metadata[FieldPrivacy]; ok {
		p := Privacy(delta.New)
		return &p
	}
	return nil
}
