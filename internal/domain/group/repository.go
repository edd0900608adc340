package group

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context, workspaceID string) ([]Group, error)
	ListChildren(ctx context.Context, parentID string) ([]Group, error)
	UpdateGroup(ctx context.Context, id string, name *string, parentID *string, clearParent bool) error
	// DeleteGroupCascade removes the group, all its descendant groups, and
	// every file and checkpoint contained in any of them.
	DeleteGroupCascade(ctx context.Context, id string) error
}
