package config

import (
	"fmt"
	"strings"

	"orgsync/internal/teamsync"
)

// ValidationError is a single configuration validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors collects every validation failure in one pass so the
// operator sees the full list instead of fixing errors one at a time.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors reports whether any validation error was recorded.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add records a validation error.
func (ve *ValidationErrors) Add(field, message string, value ...any) {
	var val any
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}

// Validate checks the configuration for structural problems. Warnings cover
// conditions the reconciler tolerates at run time, such as parent references
// it may still resolve against the live organization.
func Validate(c Config) (warnings []string, err error) {
	var errs ValidationErrors

	switch c.UnmanagedTeams {
	case "", teamsync.UnmanagedIgnore, teamsync.UnmanagedWarn, teamsync.UnmanagedRemove:
	default:
		errs.Add("unmanaged_teams", "must be one of ignore, warn, remove", c.UnmanagedTeams)
	}

	declared := map[string]bool{}
	slugOwners := map[string]string{}

	validateTeam := func(field, name string, privacy *teamsync.Privacy) {
		if strings.TrimSpace(name) == "" {
			errs.Add(field+".name", "is required")
			return
		}
		if declared[name] {
			errs.Add(field+".name", "duplicate team name", name)
			return
		}
		declared[name] = true

		slug := teamsync.Slugify(name)
		if slug == "" {
			errs.Add(field+".name", "produces an empty slug", name)
		} else if other, taken := slugOwners[slug]; taken {
			errs.Add(field+".name", fmt.Sprintf("slug %q collides with team %q", slug, other), name)
		} else {
			slugOwners[slug] = name
		}

		if privacy != nil {
			switch *privacy {
			case teamsync.PrivacyClosed, teamsync.PrivacySecret:
			default:
				errs.Add(field+".privacy", "must be one of closed, secret", *privacy)
			}
		}
	}

	for i, team := range c.Teams {
		field := fmt.Sprintf("teams[%d]", i)
		validateTeam(field, team.Name, team.Privacy)

		if team.Members != nil {
			for j, member := range *team.Members {
				if strings.TrimSpace(member.Username) == "" {
					errs.Add(fmt.Sprintf("%s.members[%d].username", field, j), "is required")
				}
				switch member.Role {
				case "", teamsync.RoleMember, teamsync.RoleMaintainer:
				default:
					errs.Add(fmt.Sprintf("%s.members[%d].role", field, j), "must be one of member, maintainer", member.Role)
				}
			}
		}
	}

	for i, rule := range c.DynamicTeams {
		field := fmt.Sprintf("dynamic_teams[%d]", i)
		validateTeam(field, rule.Name, rule.Privacy)

		switch rule.Type {
		case teamsync.RuleAllOrgMembers, teamsync.RuleByFilter, teamsync.RuleComposite:
		case "":
			errs.Add(field+".type", "is required")
		default:
			// Unknown rule types are tolerated here; the resolver reports
			// them as warning findings at run time.
		}
	}

	for i, team := range c.Teams {
		if team.Parent == nil || *team.Parent == "" {
			continue
		}
		// The Manager resolves parents by slug against the running inventory.
		if _, ok := slugOwners[teamsync.Slugify(*team.Parent)]; !ok {
			warnings = append(warnings,
				fmt.Sprintf("teams[%d]: parent %q is not declared in configuration and must already exist in the organization", i, *team.Parent))
		}
	}

	if errs.HasErrors() {
		return warnings, errs
	}
	return warnings, nil
}
