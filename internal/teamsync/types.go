package teamsync

// Privacy is the visibility level of a team.
type Privacy string

const (
	// PrivacyClosed means the team is visible to all organization members.
	PrivacyClosed Privacy = "closed"

	// PrivacySecret means the team is only visible to organization owners
	// and the team's own members.
	PrivacySecret Privacy = "secret"
)

// Role is the membership role of a user within a team.
type Role string

const (
	// RoleMember is a regular team member.
	RoleMember Role = "member"

	// RoleMaintainer can manage the team's settings and membership.
	RoleMaintainer Role = "maintainer"
)

// RuleType identifies how a dynamic team's membership is computed.
type RuleType string

const (
	// RuleAllOrgMembers expands to every member of the organization.
	RuleAllOrgMembers RuleType = "all_org_members"

	// RuleByFilter selects members matching filter criteria.
	// Recognized but not resolved; see Resolver.
	RuleByFilter RuleType = "by_filter"

	// RuleComposite combines other teams with set operations.
	// Recognized but not resolved; see Resolver.
	RuleComposite RuleType = "composite"
)

// TeamSource records where a resolved team came from.
type TeamSource string

const (
	// SourceDefinition marks a team declared statically in configuration.
	SourceDefinition TeamSource = "definition"

	// SourceDynamic marks a team produced by a dynamic membership rule.
	SourceDynamic TeamSource = "dynamic"
)

// UnmanagedPolicy controls what happens to teams that exist at the provider
// but have no counterpart in configuration.
type UnmanagedPolicy string

const (
	// UnmanagedIgnore leaves unmanaged teams alone without comment.
	UnmanagedIgnore UnmanagedPolicy = "ignore"

	// UnmanagedWarn reports unmanaged teams as a warning finding.
	UnmanagedWarn UnmanagedPolicy = "warn"

	// UnmanagedRemove is accepted but not implemented; runs using it get a
	// warning finding instead of deletions.
	UnmanagedRemove UnmanagedPolicy = "remove"
)

// TeamMember is a username paired with its role inside a team.
type TeamMember struct {
	Username string `yaml:"username" json:"username"`
	Role     Role   `yaml:"role,omitempty" json:"role,omitempty"`
}

// TeamDefinition is one statically declared team. All metadata fields are
// optional; a nil pointer means "not declared", which the Diff Engine treats
// as "leave the provider's value untouched".
//
// Members is deliberately a pointer to a slice: nil means membership is not
// managed at all, while a non-nil empty slice means membership is enforced to
// be exactly empty. The two must never be collapsed.
type TeamDefinition struct {
	Name                string        `yaml:"name" json:"name"`
	Description         *string       `yaml:"description,omitempty" json:"description,omitempty"`
	Parent              *string       `yaml:"parent,omitempty" json:"parent,omitempty"`
	Privacy             *Privacy      `yaml:"privacy,omitempty" json:"privacy,omitempty"`
	NotificationSetting *string       `yaml:"notification_setting,omitempty" json:"notification_setting,omitempty"`
	Members             *[]TeamMember `yaml:"members,omitempty" json:"members,omitempty"`
}

// ManageMembers reports whether this definition declares a member list,
// empty or otherwise.
func (d TeamDefinition) ManageMembers() bool {
	return d.Members != nil
}

// DynamicTeamRule declares a team whose membership is computed at run time.
type DynamicTeamRule struct {
	Name                string        `yaml:"name" json:"name"`
	Type                RuleType      `yaml:"type" json:"type"`
	Description         *string       `yaml:"description,omitempty" json:"description,omitempty"`
	Privacy             *Privacy      `yaml:"privacy,omitempty" json:"privacy,omitempty"`
	NotificationSetting *string       `yaml:"notification_setting,omitempty" json:"notification_setting,omitempty"`
	Filter              *MemberFilter `yaml:"filter,omitempty" json:"filter,omitempty"`
	Compose             *Composition  `yaml:"compose,omitempty" json:"compose,omitempty"`
}

// MemberFilter is the payload of a by_filter rule. Modeled so configuration
// round-trips, but not evaluated by the Resolver.
type MemberFilter struct {
	Role  string   `yaml:"role,omitempty" json:"role,omitempty"`
	Teams []string `yaml:"teams,omitempty" json:"teams,omitempty"`
}

// Composition is the payload of a composite rule. Modeled but not evaluated.
type Composition struct {
	Union     []string `yaml:"union,omitempty" json:"union,omitempty"`
	Intersect []string `yaml:"intersect,omitempty" json:"intersect,omitempty"`
	Exclude   []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Desired is the configuration slice the Manager reconciles: static team
// definitions plus dynamic membership rules, in declaration order.
type Desired struct {
	Teams        []TeamDefinition  `yaml:"teams,omitempty" json:"teams,omitempty"`
	DynamicTeams []DynamicTeamRule `yaml:"dynamic_teams,omitempty" json:"dynamic_teams,omitempty"`
}

// ResolvedTeam is the Resolver's output unit: a definition paired with its
// concrete target membership and provenance.
type ResolvedTeam struct {
	Definition TeamDefinition
	Members    []TeamMember
	Source     TeamSource

	// Rule is set when Source is SourceDynamic, for traceability.
	Rule *DynamicTeamRule
}

// ManageMembers reports whether membership should be enforced for this team.
// Dynamic teams always manage membership; static teams only when the
// definition declares a member list.
func (r ResolvedTeam) ManageMembers() bool {
	if r.Source == SourceDynamic {
		return true
	}
	return r.Definition.ManageMembers()
}

// TeamSummary is the provider's directory entry for a team, as returned by
// the inventory and by-slug lookups.
type TeamSummary struct {
	ID                  int64
	Slug                string
	Name                string
	Description         string
	Privacy             Privacy
	NotificationSetting string
	ParentSlug          string
}

// ObservedTeamState is the provider's full current truth for one team:
// its summary plus its membership. Fetched fresh per run, never cached
// across runs.
type ObservedTeamState struct {
	TeamSummary
	Members []TeamMember
}

// NewTeam is the creation payload sent to the provider.
type NewTeam struct {
	Name                string
	Description         *string
	Privacy             *Privacy
	NotificationSetting *string
	ParentTeamID        *int64
}

// TeamMetadata is the partial update payload for an existing team. Nil
// fields are not sent.
type TeamMetadata struct {
	Description         *string
	Privacy             *Privacy
	NotificationSetting *string
	ParentTeamID        *int64
}
