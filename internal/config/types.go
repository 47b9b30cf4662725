package config

import (
	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
)

// Config is the root orgsync configuration, loaded from orgsync.yaml.
type Config struct {
	// Owner is the default organization login. The --owner flag and the
	// ORGSYNC_OWNER environment variable take precedence.
	Owner string `yaml:"owner,omitempty" json:"owner,omitempty"`

	// Teams are the statically declared team definitions, reconciled in
	// declaration order.
	Teams []teamsync.TeamDefinition `yaml:"teams,omitempty" json:"teams,omitempty"`

	// DynamicTeams are rule-derived team definitions.
	DynamicTeams []teamsync.DynamicTeamRule `yaml:"dynamic_teams,omitempty" json:"dynamic_teams,omitempty"`

	// UnmanagedTeams selects how teams present in the organization but
	// absent from configuration are handled. Defaults to ignore.
	UnmanagedTeams teamsync.UnmanagedPolicy `yaml:"unmanaged_teams,omitempty" json:"unmanaged_teams,omitempty"`

	// Repositories is the repository compliance policy. An absent block
	// disables the repository checks entirely.
	Repositories repocheck.Policy `yaml:"repositories,omitempty" json:"repositories,omitempty"`
}

// Desired extracts the team reconciliation input from the configuration.
func (c Config) Desired() teamsync.Desired {
	return teamsync.Desired{
		Teams:        c.Teams,
		DynamicTeams: c.DynamicTeams,
	}
}
