package teamsync

import "context"

// Provider is the remote-entity client surface the reconciliation engine
// consumes. The concrete implementation lives in internal/github; tests use
// in-package fakes.
type Provider interface {
	// ListTeams enumerates all current teams of the owner organization.
	ListTeams(ctx context.Context, owner string) ([]TeamSummary, error)

	// ListTeamMembers enumerates a team's members with their roles.
	ListTeamMembers(ctx context.Context, owner, slug string) ([]TeamMember, error)

	// ListOrgMembers enumerates the usernames of all organization members.
	ListOrgMembers(ctx context.Context, owner string) ([]string, error)

	// CreateTeam creates a team and returns the provider's summary for it.
	CreateTeam(ctx context.Context, owner string, team NewTeam) (*TeamSummary, error)

	// UpdateTeam applies a partial metadata update to an existing team.
	UpdateTeam(ctx context.Context, owner, slug string, meta TeamMetadata) error

	// AddTeamMembership adds a user to a team or updates their role.
	AddTeamMembership(ctx context.Context, owner, slug, username string, role Role) error

	// RemoveTeamMembership removes a user from a team.
	RemoveTeamMembership(ctx context.Context, owner, slug, username string) error

	// GetTeamBySlug fetches a single team summary, or nil when absent.
	GetTeamBySlug(ctx context.Context, owner, slug string) (*TeamSummary, error)
}

// MemberLister is the narrow slice of Provider the Resolver needs for
// dynamic rule evaluation.
type MemberLister interface {
	ListOrgMembers(ctx context.Context, owner string) ([]string, error)
}
