package teamsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// fakeProvider is an in-memory Provider used across the package tests. It
// records every mutating call so dry-run tests can assert that none happened.
type fakeProvider struct {
	mu sync.Mutex

	teams      map[string]*fakeTeam
	orgMembers []string
	nextID     int64

	// mutationCalls records CreateTeam/UpdateTeam/AddTeamMembership/
	// RemoveTeamMembership invocations in order.
	mutationCalls []string

	listTeamsErr      error
	listOrgMembersErr error
	listMembersErr    map[string]error
	addMembershipErr  map[string]error
	removeMemberErr   map[string]error
	createTeamErr     map[string]error
}

type fakeTeam struct {
	summary TeamSummary
	members map[string]Role
	// memberOrder keeps listing deterministic.
	memberOrder []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		teams:            map[string]*fakeTeam{},
		listMembersErr:   map[string]error{},
		addMembershipErr: map[string]error{},
		removeMemberErr:  map[string]error{},
		createTeamErr:    map[string]error{},
		nextID:           100,
	}
}

// seedTeam installs an existing team with the given members.
func (f *fakeProvider) seedTeam(summary TeamSummary, members ...TeamMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if summary.ID == 0 {
		f.nextID++
		summary.ID = f.nextID
	}
	t := &fakeTeam{summary: summary, members: map[string]Role{}}
	for _, m := range members {
		t.members[m.Username] = m.Role
		t.memberOrder = append(t.memberOrder, m.Username)
	}
	f.teams[summary.Slug] = t
}

func (f *fakeProvider) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.mutationCalls))
	copy(out, f.mutationCalls)
	return out
}

func (f *fakeProvider) recordMutation(format string, args ...any) {
	f.mutationCalls = append(f.mutationCalls, fmt.Sprintf(format, args...))
}

func (f *fakeProvider) ListTeams(ctx context.Context, owner string) ([]TeamSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listTeamsErr != nil {
		return nil, f.listTeamsErr
	}
	slugs := make([]string, 0, len(f.teams))
	for slug := range f.teams {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	out := make([]TeamSummary, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, f.teams[slug].summary)
	}
	return out, nil
}

func (f *fakeProvider) ListTeamMembers(ctx context.Context, owner, slug string) ([]TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listMembersErr[slug]; err != nil {
		return nil, err
	}
	t, ok := f.teams[slug]
	if !ok {
		return nil, fmt.Errorf("team %s not found", slug)
	}
	out := make([]TeamMember, 0, len(t.memberOrder))
	for _, username := range t.memberOrder {
		out = append(out, TeamMember{Username: username, Role: t.members[username]})
	}
	return out, nil
}

func (f *fakeProvider) ListOrgMembers(ctx context.Context, owner string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listOrgMembersErr != nil {
		return nil, f.listOrgMembersErr
	}
	out := make([]string, len(f.orgMembers))
	copy(out, f.orgMembers)
	return out, nil
}

func (f *fakeProvider) CreateTeam(ctx context.Context, owner string, team NewTeam) (*TeamSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slug := Slugify(team.Name)
	f.recordMutation("create %s", slug)
	if err := f.createTeamErr[slug]; err != nil {
		return nil, err
	}
	f.nextID++
	summary := TeamSummary{ID: f.nextID, Slug: slug, Name: team.Name}
	if team.Description != nil {
		summary.Description = *team.Description
	}
	if team.Privacy != nil {
		summary.Privacy = *team.Privacy
	}
	if team.NotificationSetting != nil {
		summary.NotificationSetting = *team.NotificationSetting
	}
	if team.ParentTeamID != nil {
		for _, t := range f.teams {
			if t.summary.ID == *team.ParentTeamID {
				summary.ParentSlug = t.summary.Slug
			}
		}
	}
	f.teams[slug] = &fakeTeam{summary: summary, members: map[string]Role{}}
	return &summary, nil
}

func (f *fakeProvider) UpdateTeam(ctx context.Context, owner, slug string, meta TeamMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordMutation("update %s", slug)
	t, ok := f.teams[slug]
	if !ok {
		return fmt.Errorf("team %s not found", slug)
	}
	if meta.Description != nil {
		t.summary.Description = *meta.Description
	}
	if meta.Privacy != nil {
		t.summary.Privacy = *meta.Privacy
	}
	if meta.NotificationSetting != nil {
		t.summary.NotificationSetting = *meta.NotificationSetting
	}
	if meta.ParentTeamID != nil {
		for _, other := range f.teams {
			if other.summary.ID == *meta.ParentTeamID {
				t.summary.ParentSlug = other.summary.Slug
			}
		}
	}
	return nil
}

func (f *fakeProvider) AddTeamMembership(ctx context.Context, owner, slug, username string, role Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordMutation("add %s/%s", slug, username)
	if err := f.addMembershipErr[username]; err != nil {
		return err
	}
	t, ok := f.teams[slug]
	if !ok {
		return fmt.Errorf("team %s not found", slug)
	}
	if _, exists := t.members[username]; !exists {
		t.memberOrder = append(t.memberOrder, username)
	}
	t.members[username] = role
	return nil
}

func (f *fakeProvider) RemoveTeamMembership(ctx context.Context, owner, slug, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordMutation("remove %s/%s", slug, username)
	if err := f.removeMemberErr[username]; err != nil {
		return err
	}
	t, ok := f.teams[slug]
	if !ok {
		return fmt.Errorf("team %s not found", slug)
	}
	delete(t.members, username)
	for i, u := range t.memberOrder {
		if u == username {
			t.memberOrder = append(t.memberOrder[:i], t.memberOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeProvider) GetTeamBySlug(ctx context.Context, owner, slug string) (*TeamSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[slug]
	if !ok {
		return nil, nil
	}
	summary := t.summary
	return &summary, nil
}

// strptr and friends keep test tables readable.
func strptr(s string) *string          { return &s }
func privacyptr(p Privacy) *Privacy    { return &p }
func membersptr(m []TeamMember) *[]TeamMember { return &m }

func findingsBySeverity(findings []Finding, severity Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}
