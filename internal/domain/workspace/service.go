package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"whiteboard-app-go/internal/domain/access"
)

const (
	// DefaultGroupName seeds workspaces created through the API.
	DefaultGroupName = "Default"
	// SignupGroupName seeds the workspace provisioned at signup.
	SignupGroupName = "Getting Started"

	slugAttempts = 100
)

// Users is the slice of the user domain this service needs: membership
// writes must not point at unregistered user ids.
type Users interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo  Repository
	users Users
}

func NewService(repo Repository, users Users) *Service {
	return &Service{repo: repo, users: users}
}

// RoleOf resolves the actor's role in a workspace. A missing membership row
// is the no-access state, not an error: it yields access.RoleNone.
func (s *Service) RoleOf(ctx context.Context, workspaceID, userID string) (access.Role, error) {
	member, err := s.repo.GetMembership(ctx, workspaceID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return access.RoleNone, nil
	}
	if err != nil {
		return access.RoleNone, err
	}
	return member.Role, nil
}

// Authorize resolves the actor's role and checks it against the action's
// floor. A non-member gets access.ErrNoMembership, which transport surfaces
// as not-found so reads of specific ids do not leak resource existence; an
// identified member below the floor gets access.ErrForbidden.
func (s *Service) Authorize(ctx context.Context, workspaceID, userID string, action access.Action) (access.Role, error) {
	role, err := s.RoleOf(ctx, workspaceID, userID)
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

// Create provisions a workspace with the creator as its single OWNER and one
// seeded group, all in one transaction. The slug is probed as base, base-1,
// base-2, …; a unique-index violation on insert advances to the next
// candidate rather than failing the request.
func (s *Service) Create(ctx context.Context, ownerID, name, description, seedGroupName string) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if seedGroupName == "" {
		seedGroupName = DefaultGroupName
	}

	base := Slugify(name)

	for i := 0; i < slugAttempts; i++ {
		slug := base
		if i > 0 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}

		taken, err := s.repo.IsSlugTaken(ctx, slug)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		ws := Workspace{
			ID:          uuid.NewString(),
			Name:        name,
			Slug:        slug,
			Description: description,
		}
		err = s.repo.Transaction(ctx, func(tx Repository) error {
			if err := tx.CreateWorkspace(ctx, &ws); err != nil {
				return err
			}
			owner := Membership{
				WorkspaceID: ws.ID,
				UserID:      ownerID,
				Role:        access.RoleOwner,
			}
			if err := tx.UpsertMembership(ctx, &owner); err != nil {
				return err
			}
			return tx.SeedGroup(ctx, uuid.NewString(), ws.ID, seedGroupName)
		})
		if errors.Is(err, ErrSlugTaken) {
			// Lost the race for this slug; try the next candidate.
			continue
		}
		if err != nil {
			return nil, err
		}
		return &ws, nil
	}

	return nil, ErrSlugExhausted
}

func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	return s.repo.ListWorkspacesByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, actorID, id string) (*Workspace, error) {
	if _, err := s.Authorize(ctx, id, actorID, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.GetWorkspace(ctx, id)
}

func (s *Service) Update(ctx context.Context, actorID, id string, name, description *string) (*Workspace, error) {
	if _, err := s.Authorize(ctx, id, actorID, access.ActionManageMembers); err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrNameRequired
		}
		name = &trimmed
	}

	if err := s.repo.UpdateWorkspace(ctx, id, name, description); err != nil {
		return nil, err
	}
	return s.repo.GetWorkspace(ctx, id)
}

// Delete destroys the workspace and everything it transitively owns.
// OWNER only.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.Authorize(ctx, id, actorID, access.ActionOwn); err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		return tx.DeleteWorkspaceCascade(ctx, id)
	})
}

func (s *Service) ListMembers(ctx context.Context, actorID, workspaceID string) ([]MemberProfile, error) {
	if _, err := s.Authorize(ctx, workspaceID, actorID, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, workspaceID)
}

// SetMemberRole creates or updates a membership. ADMIN may manage members
// below OWNER; granting or revoking OWNER, or touching an existing OWNER,
// requires OWNER. The last OWNER can never be demoted.
func (s *Service) SetMemberRole(ctx context.Context, actorID, workspaceID, userID string, role access.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	actorRole, err := s.Authorize(ctx, workspaceID, actorID, access.ActionManageMembers)
	if err != nil {
		return err
	}

	// The target must be a registered user before a membership row can
	// point at it; otherwise the insert dies on the foreign key.
	known, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !known {
		return ErrUserNotFound
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		var currentRole access.Role
		current, err := tx.GetMembership(ctx, workspaceID, userID)
		switch {
		case errors.Is(err, ErrMemberNotFound):
			currentRole = access.RoleNone
		case err != nil:
			return err
		default:
			currentRole = current.Role
		}

		ownerInvolved := role == access.RoleOwner || currentRole == access.RoleOwner
		if ownerInvolved && !access.Allowed(actorRole, access.ActionOwn) {
			return access.ErrForbidden
		}

		if currentRole == access.RoleOwner && role != access.RoleOwner {
			owners, err := tx.CountOwners(ctx, workspaceID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return ErrLastOwner
			}
		}

		return tx.UpsertMembership(ctx, &Membership{
			WorkspaceID: workspaceID,
			UserID:      userID,
			Role:        role,
		})
	})
}

// RemoveMember deletes a membership row entirely. Same OWNER-touching and
// last-OWNER rules as SetMemberRole.
func (s *Service) RemoveMember(ctx context.Context, actorID, workspaceID, userID string) error {
	actorRole, err := s.Authorize(ctx, workspaceID, actorID, access.ActionManageMembers)
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetMembership(ctx, workspaceID, userID)
		if err != nil {
			return err
		}

		if current.Role == access.RoleOwner {
			if !access.Allowed(actorRole, access.ActionOwn) {
				return access.ErrForbidden
			}
			owners, err := tx.CountOwners(ctx, workspaceID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return ErrLastOwner
			}
		}

		return tx.DeleteMembership(ctx, workspaceID, userID)
	})
}
