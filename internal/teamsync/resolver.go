package teamsync

import (
	"context"
	"fmt"

	"orgsync/pkg/logging"
)

// Resolver turns configuration into the flat list of desired teams with
// concrete target membership. Static definitions pass through; dynamic rules
// are expanded against the provider where supported.
type Resolver struct {
	members MemberLister
}

// NewResolver creates a Resolver that evaluates dynamic rules through the
// given member lister.
func NewResolver(members MemberLister) *Resolver {
	return &Resolver{members: members}
}

// Resolution is the Resolver's output: static and dynamic desired teams in
// declaration order, plus findings for rules that could not be resolved.
type Resolution struct {
	Static   []ResolvedTeam
	Dynamic  []ResolvedTeam
	Findings []Finding
}

// Teams returns all resolved teams in processing order: static definitions
// first, then dynamic.
func (r *Resolution) Teams() []ResolvedTeam {
	out := make([]ResolvedTeam, 0, len(r.Static)+len(r.Dynamic))
	out = append(out, r.Static...)
	return append(out, r.Dynamic...)
}

// Resolve expands the desired configuration for one organization.
//
// Failure to evaluate a single dynamic rule drops only that rule's team and
// records an error finding; it never aborts the whole resolution. Unsupported
// and unknown rule types produce warning findings rather than failing silently.
func (r *Resolver) Resolve(ctx context.Context, owner string, desired Desired) (*Resolution, error) {
	res := &Resolution{}

	for _, def := range desired.Teams {
		var members []TeamMember
		if def.Members != nil {
			members = make([]TeamMember, len(*def.Members))
			copy(members, *def.Members)
		}
		res.Static = append(res.Static, ResolvedTeam{
			Definition: def,
			Members:    members,
			Source:     SourceDefinition,
		})
	}

	for i := range desired.DynamicTeams {
		rule := desired.DynamicTeams[i]
		switch rule.Type {
		case RuleAllOrgMembers:
			team, err := r.resolveAllOrgMembers(ctx, owner, rule)
			if err != nil {
				logging.Error("TeamResolver", err, "dynamic rule %q failed, dropping its team", rule.Name)
				res.Findings = append(res.Findings, Finding{
					Severity: SeverityError,
					Subject:  rule.Name,
					Message:  fmt.Sprintf("dynamic rule %q failed to resolve: %v", rule.Name, err),
				})
				continue
			}
			res.Dynamic = append(res.Dynamic, *team)

		case RuleByFilter, RuleComposite:
			logging.Warn("TeamResolver", "dynamic rule %q has unsupported type %q, skipping", rule.Name, rule.Type)
			res.Findings = append(res.Findings, Finding{
				Severity: SeverityWarning,
				Subject:  rule.Name,
				Message:  fmt.Sprintf("dynamic rule type %q is not supported yet, skipping %q", rule.Type, rule.Name),
				Details:  map[string]any{"rule": rule.Name, "type": string(rule.Type)},
			})

		default:
			logging.Warn("TeamResolver", "dynamic rule %q has unknown type %q, skipping", rule.Name, rule.Type)
			res.Findings = append(res.Findings, Finding{
				Severity: SeverityWarning,
				Subject:  rule.Name,
				Message:  fmt.Sprintf("unknown dynamic rule type %q, skipping %q", rule.Type, rule.Name),
				Details:  map[string]any{"rule": rule.Name, "type": string(rule.Type)},
			})
		}
	}

	return res, nil
}

func (r *Resolver) resolveAllOrgMembers(ctx context.Context, owner string, rule DynamicTeamRule) (*ResolvedTeam, error) {
	usernames, err := r.members.ListOrgMembers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", owner, err)
	}

	members := make([]TeamMember, 0, len(usernames))
	for _, u := range usernames {
		// Bulk org expansion carries no role information.
		members = append(members, TeamMember{Username: u, Role: RoleMember})
	}

	logging.Debug("TeamResolver", "rule %q expanded to %d members", rule.Name, len(members))
	return &ResolvedTeam{
		Definition: TeamDefinition{
			Name:                rule.Name,
			Description:         rule.Description,
			Privacy:             rule.Privacy,
			NotificationSetting: rule.NotificationSetting,
		},
		Members: members,
		Source:  SourceDynamic,
		Rule:    &rule,
	}, nil
}
