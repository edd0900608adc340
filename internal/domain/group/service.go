package group

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"whiteboard-app-go/internal/domain/access"
)

// maxTreeDepth bounds the ancestor walk so a malformed tree (which the
// validation below should make impossible) cannot loop forever.
const maxTreeDepth = 128

// Memberships resolves an actor's role in a workspace. Implemented by the
// workspace service; absence of a membership yields access.RoleNone.
type Memberships interface {
	RoleOf(ctx context.Context, workspaceID, userID string) (access.Role, error)
}

type Service struct {
	repo    Repository
	members Memberships
}

func NewService(repo Repository, members Memberships) *Service {
	return &Service{repo: repo, members: members}
}

func (s *Service) authorize(ctx context.Context, workspaceID, actorID string, action access.Action) (access.Role, error) {
	role, err := s.members.RoleOf(ctx, workspaceID, actorID)
	if err != nil {
		return access.RoleNone, err
	}
	if role == access.RoleNone {
		return access.RoleNone, access.ErrNoMembership
	}
	if !access.Allowed(role, action) {
		return access.RoleNone, access.ErrForbidden
	}
	return role, nil
}

// Create adds a group to a workspace, optionally under a parent. The parent
// must exist and belong to the same workspace.
func (s *Service) Create(ctx context.Context, actorID, workspaceID, name string, parentID *string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.authorize(ctx, workspaceID, actorID, access.ActionWrite); err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.repo.GetGroup(ctx, *parentID)
		if errors.Is(err, ErrGroupNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.WorkspaceID != workspaceID {
			return nil, ErrParentWorkspaceMismatch
		}
	}

	g := Group{
		ID:          uuid.NewString(),
		Name:        name,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
	}
	if err := s.repo.CreateGroup(ctx, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Service) List(ctx context.Context, actorID, workspaceID string) ([]Group, error) {
	if _, err := s.authorize(ctx, workspaceID, actorID, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListGroups(ctx, workspaceID)
}

// Get returns a group if the actor is a member of its workspace; a
// non-member is indistinguishable from a missing group.
func (s *Service) Get(ctx context.Context, actorID, id string) (*Group, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, g.WorkspaceID, actorID, access.ActionRead); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) Children(ctx context.Context, actorID, id string) ([]Group, error) {
	if _, err := s.Get(ctx, actorID, id); err != nil {
		return nil, err
	}
	return s.repo.ListChildren(ctx, id)
}

// WorkspaceIDOf resolves the owning workspace of a group. This is the
// hierarchy link the file service walks to find the membership-bearing
// ancestor.
func (s *Service) WorkspaceIDOf(ctx context.Context, id string) (string, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return "", err
	}
	return g.WorkspaceID, nil
}

// Update renames and/or reparents a group. parentID semantics: nil leaves
// the parent unchanged, clearParent moves the group to the workspace root.
// Reparenting rejects parents from other workspaces and any parent that is
// the group itself or one of its descendants.
func (s *Service) Update(ctx context.Context, actorID, id string, name *string, parentID *string, clearParent bool) (*Group, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, g.WorkspaceID, actorID, access.ActionWrite); err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrNameRequired
		}
		name = &trimmed
	}

	if parentID != nil {
		if err := s.validateParent(ctx, g, *parentID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateGroup(ctx, id, name, parentID, clearParent); err != nil {
		return nil, err
	}
	return s.repo.GetGroup(ctx, id)
}

func (s *Service) validateParent(ctx context.Context, g *Group, parentID string) error {
	if parentID == g.ID {
		return ErrParentCycle
	}

	parent, err := s.repo.GetGroup(ctx, parentID)
	if errors.Is(err, ErrGroupNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return err
	}
	if parent.WorkspaceID != g.WorkspaceID {
		return ErrParentWorkspaceMismatch
	}

	// Walk up from the proposed parent; reaching g means the parent sits
	// inside g's own subtree.
	current := parent
	for depth := 0; depth < maxTreeDepth; depth++ {
		if current.ParentID == nil {
			return nil
		}
		if *current.ParentID == g.ID {
			return ErrParentCycle
		}
		current, err = s.repo.GetGroup(ctx, *current.ParentID)
		if err != nil {
			return err
		}
	}
	return ErrParentCycle
}

// Delete removes the group and cascades to contained files and descendant
// groups. ADMIN and above.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, g.WorkspaceID, actorID, access.ActionDelete); err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		return tx.DeleteGroupCascade(ctx, id)
	})
}
