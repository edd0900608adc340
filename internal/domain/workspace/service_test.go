package workspace

import (
	"context"
	"errors"
	"testing"

	"whiteboard-app-go/internal/domain/access"
)

type seededGroup struct {
	ID          string
	WorkspaceID string
	Name        string
}

// openDirectory treats every user id as registered, for tests that do not
// exercise the existence check.
type openDirectory struct{}

func (openDirectory) Exists(context.Context, string) (bool, error) { return true, nil }

type fakeUserDirectory struct {
	known map[string]bool
}

func directoryOf(ids ...string) *fakeUserDirectory {
	d := &fakeUserDirectory{known: make(map[string]bool)}
	for _, id := range ids {
		d.known[id] = true
	}
	return d
}

func (d *fakeUserDirectory) Exists(ctx context.Context, id string) (bool, error) {
	return d.known[id], nil
}

type fakeWorkspaceRepo struct {
	workspaces map[string]*Workspace
	members    map[string]map[string]*Membership
	groups     []seededGroup

	// slugConflicts forces CreateWorkspace to fail with ErrSlugTaken for
	// these slugs even when IsSlugTaken reported them free, simulating a
	// concurrent creation winning the unique index.
	slugConflicts map[string]bool
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{
		workspaces:    make(map[string]*Workspace),
		members:       make(map[string]map[string]*Membership),
		slugConflicts: make(map[string]bool),
	}
}

func (r *fakeWorkspaceRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeWorkspaceRepo) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	if r.slugConflicts[ws.Slug] {
		delete(r.slugConflicts, ws.Slug)
		return ErrSlugTaken
	}
	for _, existing := range r.workspaces {
		if existing.Slug == ws.Slug {
			return ErrSlugTaken
		}
	}
	copied := *ws
	r.workspaces[ws.ID] = &copied
	return nil
}

func (r *fakeWorkspaceRepo) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

func (r *fakeWorkspaceRepo) ListWorkspacesByUser(ctx context.Context, userID string) ([]Summary, error) {
	var result []Summary
	for id, byUser := range r.members {
		member, ok := byUser[userID]
		if !ok {
			continue
		}
		ws, ok := r.workspaces[id]
		if !ok {
			continue
		}
		result = append(result, Summary{Workspace: *ws, Role: member.Role})
	}
	return result, nil
}

func (r *fakeWorkspaceRepo) UpdateWorkspace(ctx context.Context, id string, name, description *string) error {
	ws, ok := r.workspaces[id]
	if !ok {
		return ErrWorkspaceNotFound
	}
	if name != nil {
		ws.Name = *name
	}
	if description != nil {
		ws.Description = *description
	}
	return nil
}

func (r *fakeWorkspaceRepo) DeleteWorkspaceCascade(ctx context.Context, id string) error {
	delete(r.workspaces, id)
	delete(r.members, id)
	kept := r.groups[:0]
	for _, g := range r.groups {
		if g.WorkspaceID != id {
			kept = append(kept, g)
		}
	}
	r.groups = kept
	return nil
}

func (r *fakeWorkspaceRepo) IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	for _, ws := range r.workspaces {
		if ws.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWorkspaceRepo) GetMembership(ctx context.Context, workspaceID, userID string) (*Membership, error) {
	member, ok := r.members[workspaceID][userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (r *fakeWorkspaceRepo) ListMembers(ctx context.Context, workspaceID string) ([]MemberProfile, error) {
	var result []MemberProfile
	for _, member := range r.members[workspaceID] {
		result = append(result, MemberProfile{UserID: member.UserID, Role: member.Role})
	}
	return result, nil
}

func (r *fakeWorkspaceRepo) UpsertMembership(ctx context.Context, member *Membership) error {
	byUser, ok := r.members[member.WorkspaceID]
	if !ok {
		byUser = make(map[string]*Membership)
		r.members[member.WorkspaceID] = byUser
	}
	copied := *member
	byUser[member.UserID] = &copied
	return nil
}

func (r *fakeWorkspaceRepo) DeleteMembership(ctx context.Context, workspaceID, userID string) error {
	delete(r.members[workspaceID], userID)
	return nil
}

func (r *fakeWorkspaceRepo) CountOwners(ctx context.Context, workspaceID string) (int64, error) {
	var count int64
	for _, member := range r.members[workspaceID] {
		if member.Role == access.RoleOwner {
			count++
		}
	}
	return count, nil
}

func (r *fakeWorkspaceRepo) SeedGroup(ctx context.Context, groupID, workspaceID, name string) error {
	r.groups = append(r.groups, seededGroup{ID: groupID, WorkspaceID: workspaceID, Name: name})
	return nil
}

func (r *fakeWorkspaceRepo) addMember(workspaceID, userID string, role access.Role) {
	_ = r.UpsertMembership(context.Background(), &Membership{WorkspaceID: workspaceID, UserID: userID, Role: role})
}

func TestCreateWorkspaceSeedsOwnerAndGroup(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	svc := NewService(repo, openDirectory{})

	ws, err := svc.Create(context.Background(), "user-1", "Acme Corp", "drawing home", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ws.Slug != "acme-corp" {
		t.Fatalf("expected slug acme-corp, got %q", ws.Slug)
	}

	member, err := repo.GetMembership(context.Background(), ws.ID, "user-1")
	if err != nil {
		t.Fatalf("expected owner membership, got %v", err)
	}
	if member.Role != access.RoleOwner {
		t.Fatalf("expected OWNER role, got %q", member.Role)
	}

	if len(repo.groups) != 1 || repo.groups[0].Name != DefaultGroupName {
		t.Fatalf("expected one seeded %q group, got %+v", DefaultGroupName, repo.groups)
	}
	if repo.groups[0].WorkspaceID != ws.ID {
		t.Fatalf("seeded group belongs to %s, want %s", repo.groups[0].WorkspaceID, ws.ID)
	}
}

func TestCreateWorkspaceSlugDisambiguation(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	svc := NewService(repo, openDirectory{})

	first, err := svc.Create(context.Background(), "user-1", "Acme Corp", "", "")
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := svc.Create(context.Background(), "user-2", "Acme Corp", "", "")
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	third, err := svc.Create(context.Background(), "user-3", "acme!! corp", "", "")
	if err != nil {
		t.Fatalf("third create failed: %v", err)
	}

	if first.Slug != "acme-corp" || second.Slug != "acme-corp-1" || third.Slug != "acme-corp-2" {
		t.Fatalf("unexpected slugs: %q %q %q", first.Slug, second.Slug, third.Slug)
	}
}

func TestCreateWorkspaceSlugRaceRetries(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	// IsSlugTaken says free, but the insert loses the race once.
	repo.slugConflicts["acme-corp"] = true
	svc := NewService(repo, openDirectory{})

	ws, err := svc.Create(context.Background(), "user-1", "Acme Corp", "", "")
	if err != nil {
		t.Fatalf("expected create to retry past the conflict, got %v", err)
	}
	if ws.Slug != "acme-corp-1" {
		t.Fatalf("expected next candidate acme-corp-1, got %q", ws.Slug)
	}
}

func TestCreateWorkspaceRequiresName(t *testing.T) {
	svc := NewService(newFakeWorkspaceRepo(), openDirectory{})
	if _, err := svc.Create(context.Background(), "user-1", "   ", "", ""); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired for blank name, got %v", err)
	}
}

func TestGetWorkspaceHidesExistenceFromNonMembers(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "member", access.RoleViewer)
	svc := NewService(repo, openDirectory{})

	if _, err := svc.Get(context.Background(), "stranger", "ws-1"); !errors.Is(err, access.ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership for non-member, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "member", "ws-1"); err != nil {
		t.Fatalf("expected viewer to read workspace, got %v", err)
	}
}

func TestUpdateWorkspaceRoleFloor(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "member", access.RoleMember)
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	svc := NewService(repo, openDirectory{})

	name := "Acme Renamed"
	if _, err := svc.Update(context.Background(), "member", "ws-1", &name, nil); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}

	ws, err := svc.Update(context.Background(), "admin", "ws-1", &name, nil)
	if err != nil {
		t.Fatalf("expected admin update to succeed, got %v", err)
	}
	if ws.Name != "Acme Renamed" {
		t.Fatalf("expected renamed workspace, got %q", ws.Name)
	}
}

func TestUpdateWorkspaceRejectsBlankName(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	svc := NewService(repo, openDirectory{})

	blank := "   "
	if _, err := svc.Update(context.Background(), "admin", "ws-1", &blank, nil); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired for whitespace name, got %v", err)
	}
	if repo.workspaces["ws-1"].Name != "Acme" {
		t.Fatalf("expected name unchanged, got %q", repo.workspaces["ws-1"].Name)
	}
}

func TestDeleteWorkspaceOwnerOnly(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	repo.addMember("ws-1", "owner", access.RoleOwner)
	svc := NewService(repo, openDirectory{})

	if err := svc.Delete(context.Background(), "admin", "ws-1"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}
	if err := svc.Delete(context.Background(), "owner", "ws-1"); err != nil {
		t.Fatalf("expected owner delete to succeed, got %v", err)
	}
	if _, ok := repo.workspaces["ws-1"]; ok {
		t.Fatalf("expected workspace removed")
	}
}

func TestSetMemberRoleRules(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "owner", access.RoleOwner)
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	repo.addMember("ws-1", "member", access.RoleMember)
	svc := NewService(repo, openDirectory{})
	ctx := context.Background()

	// MEMBER cannot manage members at all.
	if err := svc.SetMemberRole(ctx, "member", "ws-1", "newbie", access.RoleViewer); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member actor, got %v", err)
	}

	// ADMIN can add and change roles below OWNER.
	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "newbie", access.RoleViewer); err != nil {
		t.Fatalf("expected admin invite to succeed, got %v", err)
	}
	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "newbie", access.RoleMember); err != nil {
		t.Fatalf("expected admin promotion to succeed, got %v", err)
	}

	// ADMIN may neither grant OWNER nor touch an existing OWNER.
	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "newbie", access.RoleOwner); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden granting OWNER as admin, got %v", err)
	}
	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "owner", access.RoleMember); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden demoting OWNER as admin, got %v", err)
	}

	// The only OWNER cannot be demoted, even by themselves.
	if err := svc.SetMemberRole(ctx, "owner", "ws-1", "owner", access.RoleAdmin); !errors.Is(err, ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}

	// With a second OWNER the demotion goes through.
	if err := svc.SetMemberRole(ctx, "owner", "ws-1", "admin", access.RoleOwner); err != nil {
		t.Fatalf("expected owner grant to succeed, got %v", err)
	}
	if err := svc.SetMemberRole(ctx, "owner", "ws-1", "owner", access.RoleAdmin); err != nil {
		t.Fatalf("expected demotion with two owners to succeed, got %v", err)
	}

	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "newbie", access.Role("SUPER")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestSetMemberRoleUnknownUser(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	svc := NewService(repo, directoryOf("admin", "newbie"))
	ctx := context.Background()

	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "ghost", access.RoleViewer); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unregistered user, got %v", err)
	}
	if _, err := repo.GetMembership(ctx, "ws-1", "ghost"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected no membership row for unregistered user, got %v", err)
	}

	if err := svc.SetMemberRole(ctx, "admin", "ws-1", "newbie", access.RoleViewer); err != nil {
		t.Fatalf("expected invite of registered user to succeed, got %v", err)
	}
}

func TestRemoveMemberRules(t *testing.T) {
	repo := newFakeWorkspaceRepo()
	repo.workspaces["ws-1"] = &Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}
	repo.addMember("ws-1", "owner", access.RoleOwner)
	repo.addMember("ws-1", "admin", access.RoleAdmin)
	repo.addMember("ws-1", "member", access.RoleMember)
	svc := NewService(repo, openDirectory{})
	ctx := context.Background()

	if err := svc.RemoveMember(ctx, "admin", "ws-1", "owner"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden removing OWNER as admin, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "owner", "ws-1", "owner"); !errors.Is(err, ErrLastOwner) {
		t.Fatalf("expected ErrLastOwner, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "admin", "ws-1", "ghost"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	if err := svc.RemoveMember(ctx, "admin", "ws-1", "member"); err != nil {
		t.Fatalf("expected admin to remove member, got %v", err)
	}
	if _, err := repo.GetMembership(ctx, "ws-1", "member"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected membership row gone, got %v", err)
	}
}
