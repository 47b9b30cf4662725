package teamsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creationDiff(name string, members ...TeamMember) TeamDiff {
	def := TeamDefinition{Name: name, Description: strptr("desc")}
	return Diff(def, Slugify(name), members, true, nil, nil, "")
}

func TestApplyDryRunHasNoSideEffects(t *testing.T) {
	provider := newFakeProvider()
	applier := NewApplier(provider)

	diff := creationDiff("New Team",
		TeamMember{Username: "a"}, TeamMember{Username: "b"}, TeamMember{Username: "c"})

	outcome, err := applier.Apply(context.Background(), diff, ApplyOptions{DryRun: true, Owner: "acme"})
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	assert.Equal(t, "new-team", outcome.Slug)
	assert.Empty(t, provider.mutations(), "dry-run must not call any mutating operation")
}

func TestApplyCreate(t *testing.T) {
	provider := newFakeProvider()
	applier := NewApplier(provider)

	diff := creationDiff("New Team", TeamMember{Username: "alice", Role: RoleMaintainer})

	outcome, err := applier.Apply(context.Background(), diff, ApplyOptions{Owner: "acme"})
	require.NoError(t, err)

	assert.True(t, outcome.Created)
	assert.True(t, outcome.UpdatedMembers)
	assert.NotZero(t, outcome.TeamID)
	assert.Equal(t, []string{"create new-team", "add new-team/alice"}, provider.mutations())

	created := provider.teams["new-team"]
	require.NotNil(t, created)
	assert.Equal(t, "desc", created.summary.Description)
	assert.Equal(t, RoleMaintainer, created.members["alice"])
}

func TestApplyMetadataUpdate(t *testing.T) {
	provider := newFakeProvider()
	provider.seedTeam(TeamSummary{Slug: "ops", Name: "Ops", Description: "old"})
	applier := NewApplier(provider)

	def := TeamDefinition{Name: "Ops", Description: strptr("new")}
	observed := &ObservedTeamState{TeamSummary: provider.teams["ops"].summary}
	diff := Diff(def, "ops", nil, false, observed, nil, "")

	outcome, err := applier.Apply(context.Background(), diff, ApplyOptions{Owner: "acme"})
	require.NoError(t, err)

	assert.True(t, outcome.UpdatedMetadata)
	assert.False(t, outcome.Created)
	assert.Equal(t, "new", provider.teams["ops"].summary.Description)
}

func TestApplyMembershipFailureIsolation(t *testing.T) {
	provider := newFakeProvider()
	provider.seedTeam(TeamSummary{Slug: "ops", Name: "Ops"},
		TeamMember{Username: "stale", Role: RoleMember})
	provider.addMembershipErr["bad"] = errors.New("membership rejected")
	applier := NewApplier(provider)

	target := []TeamMember{{Username: "bad"}, {Username: "good"}}
	observed := &ObservedTeamState{
		TeamSummary: provider.teams["ops"].summary,
		Members:     []TeamMember{{Username: "stale", Role: RoleMember}},
	}
	diff := Diff(TeamDefinition{Name: "Ops"}, "ops", target, true, observed, nil, "")

	outcome, err := applier.Apply(context.Background(), diff, ApplyOptions{Owner: "acme"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	// The failing call must not have prevented the others.
	assert.True(t, outcome.UpdatedMembers)
	assert.Contains(t, provider.teams["ops"].members, "good")
	assert.NotContains(t, provider.teams["ops"].members, "stale")
}

func TestApplyRemovalOnly(t *testing.T) {
	provider := newFakeProvider()
	provider.seedTeam(TeamSummary{Slug: "ops", Name: "Ops"},
		TeamMember{Username: "leaver", Role: RoleMember})
	applier := NewApplier(provider)

	observed := &ObservedTeamState{
		TeamSummary: provider.teams["ops"].summary,
		Members:     []TeamMember{{Username: "leaver", Role: RoleMember}},
	}
	// Declared-but-empty member list: enforce to empty.
	def := TeamDefinition{Name: "Ops", Members: membersptr([]TeamMember{})}
	diff := Diff(def, "ops", nil, def.ManageMembers(), observed, nil, "")

	outcome, err := applier.Apply(context.Background(), diff, ApplyOptions{Owner: "acme"})
	require.NoError(t, err)

	assert.True(t, outcome.UpdatedMembers)
	assert.Empty(t, provider.teams["ops"].members)
	assert.Equal(t, []string{"remove ops/leaver"}, provider.mutations())
}
