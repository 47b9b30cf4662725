package teamsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCreation(t *testing.T) {
	def := TeamDefinition{
		Name:        "Platform Team",
		Description: strptr("Owns the platform"),
		Privacy:     privacyptr(PrivacyClosed),
	}
	target := []TeamMember{
		{Username: "alice", Role: RoleMaintainer},
		{Username: "bob"},
	}

	d := Diff(def, "platform-team", target, true, nil, nil, "")

	assert.False(t, d.Exists)
	require.Len(t, d.Changes.MembersToAdd, 2)
	assert.Empty(t, d.Changes.MembersToRemove)
	assert.Empty(t, d.Changes.MembersToUpdateRole)

	// Undeclared roles are normalized to member.
	assert.Equal(t, RoleMember, d.Changes.MembersToAdd[1].Role)

	assert.Equal(t, FieldDelta{New: "Owns the platform"}, d.Changes.Metadata[FieldDescription])
	assert.Equal(t, FieldDelta{New: "closed"}, d.Changes.Metadata[FieldPrivacy])
	assert.NotContains(t, d.Changes.Metadata, FieldNotificationSetting)
}

func TestDiffExistingNoChanges(t *testing.T) {
	def := TeamDefinition{
		Name:        "Ops",
		Description: strptr("operations"),
	}
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{ID: 1, Slug: "ops", Description: "operations", Privacy: PrivacySecret},
		Members:     []TeamMember{{Username: "carol", Role: RoleMember}},
	}

	d := Diff(def, "ops", []TeamMember{{Username: "carol", Role: RoleMember}}, true, observed, nil, "")

	assert.True(t, d.Exists)
	assert.True(t, d.Changes.Empty(), "expected no changes, got %+v", d.Changes)
}

func TestDiffUndeclaredFieldsLeftUntouched(t *testing.T) {
	// The definition declares nothing but the name; whatever the provider
	// has must not be forced back to a default.
	def := TeamDefinition{Name: "Ops"}
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{Slug: "ops", Description: "custom", Privacy: PrivacyClosed, NotificationSetting: "notifications_disabled"},
	}

	d := Diff(def, "ops", nil, false, observed, nil, "")

	assert.True(t, d.Changes.Empty())
}

func TestDiffMetadataDelta(t *testing.T) {
	def := TeamDefinition{
		Name:                "Ops",
		Description:         strptr("new description"),
		Privacy:             privacyptr(PrivacyClosed),
		NotificationSetting: strptr("notifications_enabled"),
	}
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{Slug: "ops", Description: "old description", Privacy: PrivacyClosed, NotificationSetting: "notifications_disabled"},
	}

	d := Diff(def, "ops", nil, false, observed, nil, "")

	assert.Equal(t, FieldDelta{Old: "old description", New: "new description"}, d.Changes.Metadata[FieldDescription])
	assert.Equal(t, FieldDelta{Old: "notifications_disabled", New: "notifications_enabled"}, d.Changes.Metadata[FieldNotificationSetting])
	// Privacy matches observed, so no delta.
	assert.NotContains(t, d.Changes.Metadata, FieldPrivacy)
}

func TestDiffMembershipTriState(t *testing.T) {
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{Slug: "ops"},
		Members:     []TeamMember{{Username: "dave", Role: RoleMember}},
	}

	t.Run("declared empty list enforces removal", func(t *testing.T) {
		def := TeamDefinition{Name: "Ops", Members: membersptr([]TeamMember{})}
		d := Diff(def, "ops", nil, def.ManageMembers(), observed, nil, "")

		assert.Equal(t, []string{"dave"}, d.Changes.MembersToRemove)
	})

	t.Run("omitted list leaves membership alone", func(t *testing.T) {
		def := TeamDefinition{Name: "Ops"}
		d := Diff(def, "ops", nil, def.ManageMembers(), observed, nil, "")

		assert.Empty(t, d.Changes.MembersToRemove)
		assert.Empty(t, d.Changes.MembersToAdd)
	})
}

func TestDiffRoleOnlyChange(t *testing.T) {
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{Slug: "ops"},
		Members:     []TeamMember{{Username: "alice", Role: RoleMember}},
	}
	target := []TeamMember{{Username: "alice", Role: RoleMaintainer}}

	d := Diff(TeamDefinition{Name: "Ops"}, "ops", target, true, observed, nil, "")

	assert.Empty(t, d.Changes.MembersToAdd)
	assert.Empty(t, d.Changes.MembersToRemove)
	assert.Equal(t, []TeamMember{{Username: "alice", Role: RoleMaintainer}}, d.Changes.MembersToUpdateRole)
}

func TestDiffUsernamesCaseSensitive(t *testing.T) {
	observed := &ObservedTeamState{
		TeamSummary: TeamSummary{Slug: "ops"},
		Members:     []TeamMember{{Username: "Alice", Role: RoleMember}},
	}
	target := []TeamMember{{Username: "alice", Role: RoleMember}}

	d := Diff(TeamDefinition{Name: "Ops"}, "ops", target, true, observed, nil, "")

	assert.Len(t, d.Changes.MembersToAdd, 1)
	assert.Equal(t, []string{"Alice"}, d.Changes.MembersToRemove)
}

func TestDiffParentChange(t *testing.T) {
	parentID := int64(7)
	def := TeamDefinition{Name: "Child", Parent: strptr("Parent Team")}

	t.Run("new team records parent delta", func(t *testing.T) {
		d := Diff(def, "child", nil, false, nil, &parentID, "parent-team")
		assert.Equal(t, FieldDelta{New: "parent-team"}, d.Changes.Metadata[FieldParent])
		require.NotNil(t, d.ParentTeamID)
		assert.Equal(t, parentID, *d.ParentTeamID)
	})

	t.Run("existing team with same parent has no delta", func(t *testing.T) {
		observed := &ObservedTeamState{TeamSummary: TeamSummary{Slug: "child", ParentSlug: "parent-team"}}
		d := Diff(def, "child", nil, false, observed, &parentID, "parent-team")
		assert.NotContains(t, d.Changes.Metadata, FieldParent)
	})

	t.Run("unresolved parent produces no delta", func(t *testing.T) {
		d := Diff(def, "child", nil, false, nil, nil, "")
		assert.NotContains(t, d.Changes.Metadata, FieldParent)
	})
}
