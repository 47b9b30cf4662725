package teamsync

// Metadata delta keys used in ChangeSet.Metadata.
const (
	FieldDescription         = "description"
	FieldPrivacy             = "privacy"
	FieldParent              = "parent"
	FieldNotificationSetting = "notification_setting"
)

// FieldDelta records one metadata field moving from Old to New. Old is empty
// for a team that does not exist yet.
type FieldDelta struct {
	Old string
	New string
}

// ChangeSet is the structured difference between a desired team and its
// observed state.
type ChangeSet struct {
	// Metadata maps field name to its delta. Only fields the definition
	// declares explicitly and that differ from the observed value appear.
	Metadata map[string]FieldDelta

	// MembersToAdd are target members missing from the observed team.
	MembersToAdd []TeamMember

	// MembersToRemove are observed usernames absent from the target list.
	MembersToRemove []string

	// MembersToUpdateRole are members present on both sides whose role
	// differs; Role carries the target role.
	MembersToUpdateRole []TeamMember
}

// Empty reports whether the change set contains no work.
func (c ChangeSet) Empty() bool {
	return len(c.Metadata) == 0 &&
		len(c.MembersToAdd) == 0 &&
		len(c.MembersToRemove) == 0 &&
		len(c.MembersToUpdateRole) == 0
}

// TeamDiff is the full reconciliation plan for one team.
type TeamDiff struct {
	Name   string
	Slug   string
	Exists bool

	// TargetMembers is the desired membership, normalized (missing roles
	// defaulted to member).
	TargetMembers []TeamMember

	// ManageMembers controls whether membership deltas were computed at all.
	ManageMembers bool

	// ParentTeamID is the resolved provider id of the desired parent team,
	// when the parent could be resolved against the running inventory.
	ParentTeamID *int64

	// ParentSlug is the desired parent team's slug ("" when no parent is
	// declared or the parent could not be resolved).
	ParentSlug string

	Changes ChangeSet
}

// Diff computes the change set for one team. It is a pure function: no I/O,
// no side effects, fully deterministic.
//
// observed is nil for a team the provider does not know yet; in that case
// every declared metadata field becomes a delta with no old value and, when
// manageMembers is set, every target member becomes an addition.
//
// For an existing team only fields the definition declares are compared;
// undeclared fields are never forced back to a default.
func Diff(def TeamDefinition, slug string, targetMembers []TeamMember, manageMembers bool, observed *ObservedTeamState, parentID *int64, parentSlug string) TeamDiff {
	d := TeamDiff{
		Name:          def.Name,
		Slug:          slug,
		Exists:        observed != nil,
		TargetMembers: normalizeMembers(targetMembers),
		ManageMembers: manageMembers,
		ParentTeamID:  parentID,
		ParentSlug:    parentSlug,
		Changes:       ChangeSet{Metadata: map[string]FieldDelta{}},
	}

	if observed == nil {
		if def.Description != nil {
			d.Changes.Metadata[FieldDescription] = FieldDelta{New: *def.Description}
		}
		if def.Privacy != nil {
			d.Changes.Metadata[FieldPrivacy] = FieldDelta{New: string(*def.Privacy)}
		}
		if def.NotificationSetting != nil {
			d.Changes.Metadata[FieldNotificationSetting] = FieldDelta{New: *def.NotificationSetting}
		}
		if def.Parent != nil && parentSlug != "" {
			d.Changes.Metadata[FieldParent] = FieldDelta{New: parentSlug}
		}
		if manageMembers {
			d.Changes.MembersToAdd = append(d.Changes.MembersToAdd, d.TargetMembers...)
		}
		return d
	}

	if def.Description != nil && *def.Description != observed.Description {
		d.Changes.Metadata[FieldDescription] = FieldDelta{Old: observed.Description, New: *def.Description}
	}
	if def.Privacy != nil && *def.Privacy != observed.Privacy {
		d.Changes.Metadata[FieldPrivacy] = FieldDelta{Old: string(observed.Privacy), New: string(*def.Privacy)}
	}
	if def.NotificationSetting != nil && *def.NotificationSetting != observed.NotificationSetting {
		d.Changes.Metadata[FieldNotificationSetting] = FieldDelta{Old: observed.NotificationSetting, New: *def.NotificationSetting}
	}
	if def.Parent != nil && parentSlug != "" && parentSlug != observed.ParentSlug {
		d.Changes.Metadata[FieldParent] = FieldDelta{Old: observed.ParentSlug, New: parentSlug}
	}

	if manageMembers {
		diffMembers(&d.Changes, d.TargetMembers, observed.Members)
	}
	return d
}

// diffMembers computes membership deltas. Usernames match case-sensitively.
func diffMembers(c *ChangeSet, target, observed []TeamMember) {
	observedByName := make(map[string]Role, len(observed))
	for _, m := range observed {
		observedByName[m.Username] = m.Role
	}

	targetNames := make(map[string]struct{}, len(target))
	for _, m := range target {
		targetNames[m.Username] = struct{}{}
		role, ok := observedByName[m.Username]
		switch {
		case !ok:
			c.MembersToAdd = append(c.MembersToAdd, m)
		case role != m.Role:
			c.MembersToUpdateRole = append(c.MembersToUpdateRole, m)
		}
	}

	for _, m := range observed {
		if _, ok := targetNames[m.Username]; !ok {
			c.MembersToRemove = append(c.MembersToRemove, m.Username)
		}
	}
}

// normalizeMembers defaults missing roles to member. Sources that do not
// carry roles (bulk org expansion, terse YAML entries) produce members with
// an empty role.
func normalizeMembers(members []TeamMember) []TeamMember {
	if members == nil {
		return nil
	}
	out := make([]TeamMember, len(members))
	for i, m := range members {
		if m.Role == "" {
			m.Role = RoleMember
		}
		out[i] = m
	}
	return out
}
