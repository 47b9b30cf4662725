package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v74/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"orgsync/internal/teamsync"
	"orgsync/pkg/logging"
)

const (
	defaultPageSize = 100
	defaultCacheTTL = 30 * time.Second
)

// Options configure the client.
type Options struct {
	// Token is the API token. Empty means unauthenticated (rate-limited,
	// useful only for read-only experiments).
	Token string

	// BaseURL overrides the API endpoint, for GitHub Enterprise or tests.
	BaseURL string

	// CacheTTL bounds how long read responses are memoized. Zero uses a
	// default of 30 seconds.
	CacheTTL time.Duration

	// HTTPClient overrides the transport entirely. Tests use this with
	// httptest servers; when set, Token and retry wiring are skipped.
	HTTPClient *http.Client
}

// Client implements the provider surface consumed by teamsync and repocheck
// on top of the GitHub REST API. All list operations paginate internally so
// callers always see complete results.
type Client struct {
	api   *gh.Client
	cache *responseCache
}

// NewClient builds a Client with retrying transport and token auth.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 3
		rc.Logger = nil
		httpClient = rc.StandardClient()

		if opts.Token != "" {
			// Layer the token transport over the retrying client so retried
			// requests stay authenticated.
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			authCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
			httpClient = oauth2.NewClient(authCtx, src)
		}
	}

	api := gh.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		api, err = api.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("setting API base URL: %w", err)
		}
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Client{api: api, cache: newResponseCache(ttl)}, nil
}

// ListTeams enumerates all teams of the organization.
func (c *Client) ListTeams(ctx context.Context, owner string) ([]teamsync.TeamSummary, error) {
	return cached(c.cache, "teams/"+owner, func() ([]teamsync.TeamSummary, error) {
		var out []teamsync.TeamSummary
		opts := &gh.ListOptions{PerPage: defaultPageSize}
		for {
			teams, resp, err := c.api.Teams.ListTeams(ctx, owner, opts)
			if err != nil {
				return nil, fmt.Errorf("listing teams of %s: %w", owner, err)
			}
			for _, t := range teams {
				out = append(out, summaryFromTeam(t))
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		logging.Debug("GitHub", "listed %d teams for %s", len(out), owner)
		return out, nil
	})
}

// ListTeamMembers enumerates a team's members with their roles. The REST API
// does not return roles on the member listing, so members and maintainers
// are enumerated separately.
func (c *Client) ListTeamMembers(ctx context.Context, owner, slug string) ([]teamsync.TeamMember, error) {
	var out []teamsync.TeamMember
	for _, role := range []teamsync.Role{teamsync.RoleMember, teamsync.RoleMaintainer} {
		opts := &gh.TeamListTeamMembersOptions{
			Role:        string(role),
			ListOptions: gh.ListOptions{PerPage: defaultPageSize},
		}
		for {
			users, resp, err := c.api.Teams.ListTeamMembersBySlug(ctx, owner, slug, opts)
			if err != nil {
				return nil, fmt.Errorf("listing %s members of team %s/%s: %w", role, owner, slug, err)
			}
			for _, u := range users {
				out = append(out, teamsync.TeamMember{Username: u.GetLogin(), Role: role})
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
	}
	return out, nil
}

// ListOrgMembers enumerates the usernames of all organization members.
func (c *Client) ListOrgMembers(ctx context.Context, owner string) ([]string, error) {
	return cached(c.cache, "members/"+owner, func() ([]string, error) {
		var out []string
		opts := &gh.ListMembersOptions{ListOptions: gh.ListOptions{PerPage: defaultPageSize}}
		for {
			users, resp, err := c.api.Organizations.ListMembers(ctx, owner, opts)
			if err != nil {
				return nil, fmt.Errorf("listing members of %s: %w", owner, err)
			}
			for _, u := range users {
				out = append(out, u.GetLogin())
			}
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		logging.Debug("GitHub", "listed %d members for %s", len(out), owner)
		return out, nil
	})
}

// CreateTeam creates a team and returns its summary.
func (c *Client) CreateTeam(ctx context.Context, owner string, team teamsync.NewTeam) (*teamsync.TeamSummary, error) {
	payload := gh.NewTeam{
		Name:         team.Name,
		Description:  team.Description,
		ParentTeamID: team.ParentTeamID,
	}
	if team.Privacy != nil {
		payload.Privacy = gh.Ptr(string(*team.Privacy))
	}
	if team.NotificationSetting != nil {
		payload.NotificationSetting = team.NotificationSetting
	}

	created, _, err := c.api.Teams.CreateTeam(ctx, owner, payload)
	if err != nil {
		return nil, fmt.Errorf("creating team %q in %s: %w", team.Name, owner, err)
	}
	c.cache.invalidate("teams/" + owner)

	summary := summaryFromTeam(created)
	return &summary, nil
}

// UpdateTeam applies a partial metadata update to an existing team. Nil
// fields are left alone.
func (c *Client) UpdateTeam(ctx context.Context, owner, slug string, meta teamsync.TeamMetadata) error {
	payload := gh.NewTeam{
		// The edit endpoint requires a name; reuse the slug, which GitHub
		// accepts for an unchanged name.
		Name:         slug,
		Description:  meta.Description,
		ParentTeamID: meta.ParentTeamID,
	}
	if meta.Privacy != nil {
		payload.Privacy = gh.Ptr(string(*meta.Privacy))
	}
	if meta.NotificationSetting != nil {
		payload.NotificationSetting = meta.NotificationSetting
	}

	current, _, err := c.api.Teams.GetTeamBySlug(ctx, owner, slug)
	if err != nil {
		return fmt.Errorf("loading team %s/%s before update: %w", owner, slug, err)
	}
	payload.Name = current.GetName()

	if _, _, err := c.api.Teams.EditTeamBySlug(ctx, owner, slug, payload, false); err != nil {
		return fmt.Errorf("updating team %s/%s: %w", owner, slug, err)
	}
	c.cache.invalidate("teams/" + owner)
	return nil
}

// AddTeamMembership adds a user to a team or updates their role.
func (c *Client) AddTeamMembership(ctx context.Context, owner, slug, username string, role teamsync.Role) error {
	opts := &gh.TeamAddTeamMembershipOptions{Role: string(role)}
	if _, _, err := c.api.Teams.AddTeamMembershipBySlug(ctx, owner, slug, username, opts); err != nil {
		return fmt.Errorf("adding %s to team %s/%s: %w", username, owner, slug, err)
	}
	return nil
}

// RemoveTeamMembership removes a user from a team.
func (c *Client) RemoveTeamMembership(ctx context.Context, owner, slug, username string) error {
	if _, err := c.api.Teams.RemoveTeamMembershipBySlug(ctx, owner, slug, username); err != nil {
		return fmt.Errorf("removing %s from team %s/%s: %w", username, owner, slug, err)
	}
	return nil
}

// GetTeamBySlug fetches a single team summary, or nil when the team does
// not exist.
func (c *Client) GetTeamBySlug(ctx context.Context, owner, slug string) (*teamsync.TeamSummary, error) {
	team, resp, err := c.api.Teams.GetTeamBySlug(ctx, owner, slug)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching team %s/%s: %w", owner, slug, err)
	}
	summary := summaryFromTeam(team)
	return &summary, nil
}

func summaryFromTeam(t *gh.Team) teamsync.TeamSummary {
	return teamsync.TeamSummary{
		ID:                  t.GetID(),
		Slug:                t.GetSlug(),
		Name:                t.GetName(),
		Description:         t.GetDescription(),
		Privacy:             teamsync.Privacy(t.GetPrivacy()),
		NotificationSetting: t.GetNotificationSetting(),
		ParentSlug:          t.GetParent().GetSlug(),
	}
}

// isNotFound reports whether an API error is a plain 404.
func isNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
