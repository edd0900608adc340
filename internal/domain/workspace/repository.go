package workspace

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateWorkspace(ctx context.Context, ws *Workspace) error
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	ListWorkspacesByUser(ctx context.Context, userID string) ([]Summary, error)
	UpdateWorkspace(ctx context.Context, id string, name, description *string) error
	// DeleteWorkspaceCascade removes the workspace together with its
	// memberships, groups, files and checkpoints.
	DeleteWorkspaceCascade(ctx context.Context, id string) error
	IsSlugTaken(ctx context.Context, slug string) (bool, error)

	GetMembership(ctx context.Context, workspaceID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, workspaceID string) ([]MemberProfile, error)
	UpsertMembership(ctx context.Context, member *Membership) error
	DeleteMembership(ctx context.Context, workspaceID, userID string) error
	CountOwners(ctx context.Context, workspaceID string) (int64, error)

	// SeedGroup creates the initial group a fresh workspace starts with.
	SeedGroup(ctx context.Context, groupID, workspaceID, name string) error
}
