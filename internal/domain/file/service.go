package file

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"whiteboard-app-go/internal/domain/access"
)

const searchResultLimit = 50

// Groups resolves a group to its owning workspace, the hierarchy link that
// leads from a file to the membership-bearing ancestor. Implemented by the
// group service.
type Groups interface {
	WorkspaceIDOf(ctx context.Context, groupID string) (string, error)
}

// Memberships resolves an actor's role in a workspace. Implemented by the
// workspace service; absence of a membership yields access.RoleNone.
type Memberships interface {
	RoleOf(ctx context.Context, workspaceID, userID string) (access.Role, error)
}

type Service struct {
	repo    Repository
	groups  Groups
	members Memberships

	// retention caps checkpoints kept per file; 0 keeps everything.
	retention int
}

func NewService(repo Repository, groups Groups, members Memberships, retention int) *Service {
	return &Service{repo: repo, groups: groups, members: members, retention: retention}
}

func (s *Service) authorize(ctx context.Context, workspaceID, actorID string, action access.Action) error {
	role, err := s.members.RoleOf(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}
	if role == access.RoleNone {
		return access.ErrNoMembership
	}
	if !access.Allowed(role, action) {
		return access.ErrForbidden
	}
	return nil
}

// authorizeFile walks file -> group -> workspace and checks the actor's role
// there. A broken link anywhere in the chain denies; it never defaults to
// allow.
func (s *Service) authorizeFile(ctx context.Context, actorID string, f *File, action access.Action) error {
	workspaceID, err := s.groups.WorkspaceIDOf(ctx, f.GroupID)
	if err != nil {
		return fmt.Errorf("resolve workspace for group %s: %w", f.GroupID, err)
	}
	return s.authorize(ctx, workspaceID, actorID, action)
}

// Create adds a file to a group. Empty content falls back to the default
// empty canvas document.
func (s *Service) Create(ctx context.Context, actorID, groupID, name string, content Content) (*Detail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	workspaceID, err := s.groups.WorkspaceIDOf(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace for group %s: %w", groupID, err)
	}
	if err := s.authorize(ctx, workspaceID, actorID, access.ActionWrite); err != nil {
		return nil, err
	}

	if len(content) == 0 {
		content = DefaultContent.Clone()
	}

	f := File{
		ID:       uuid.NewString(),
		Name:     name,
		GroupID:  groupID,
		AuthorID: actorID,
		Content:  content,
	}
	if err := s.repo.CreateFile(ctx, &f); err != nil {
		return nil, err
	}
	return s.repo.GetFileDetail(ctx, f.ID)
}

func (s *Service) List(ctx context.Context, actorID, workspaceID string, groupID *string) ([]Detail, error) {
	if err := s.authorize(ctx, workspaceID, actorID, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, workspaceID, groupID)
}

func (s *Service) Get(ctx context.Context, actorID, id string) (*Detail, error) {
	f, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFile(ctx, actorID, f, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.GetFileDetail(ctx, id)
}

// Update changes a file's name, content and/or containing group. When
// content is replaced, a checkpoint of the exact document being overwritten
// is appended in the same transaction, so the prior state is always
// recoverable before it is gone.
func (s *Service) Update(ctx context.Context, actorID, id string, name *string, content Content, groupID *string) (*Detail, error) {
	f, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFile(ctx, actorID, f, access.ActionWrite); err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrNameRequired
		}
		name = &trimmed
	}

	if groupID != nil {
		currentWorkspace, err := s.groups.WorkspaceIDOf(ctx, f.GroupID)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace for group %s: %w", f.GroupID, err)
		}
		targetWorkspace, err := s.groups.WorkspaceIDOf(ctx, *groupID)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace for group %s: %w", *groupID, err)
		}
		if targetWorkspace != currentWorkspace {
			return nil, ErrGroupMismatch
		}
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if len(content) > 0 {
			// Re-read inside the transaction with a row lock: the
			// checkpoint must hold the content that is actually live when
			// it is replaced, and concurrent saves of the same file must
			// queue behind each other.
			live, err := tx.GetFileForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := s.snapshot(ctx, tx, id, live.Content); err != nil {
				return err
			}
		}
		return tx.UpdateFile(ctx, id, name, content, groupID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetFileDetail(ctx, id)
}

// Delete moves a file to the trash; the record and its checkpoints stay in
// the store.
func (s *Service) Delete(ctx context.Context, actorID, id string) (*File, error) {
	f, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFile(ctx, actorID, f, access.ActionDelete); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.SoftDeleteFile(ctx, id, now); err != nil {
		return nil, err
	}
	f.InTrash = true
	f.DeletedAt = &now
	return f, nil
}

// Checkpoints lists a file's snapshots newest-first; limit <= 0 returns all.
func (s *Service) Checkpoints(ctx context.Context, actorID, fileID string, limit int) ([]Checkpoint, error) {
	f, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFile(ctx, actorID, f, access.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListCheckpoints(ctx, fileID, limit)
}

// Restore rewinds a file to a checkpoint. The checkpoint must belong to the
// file; the pre-restore live content is itself checkpointed first, in the
// same transaction, so a restore is always reversible.
func (s *Service) Restore(ctx context.Context, actorID, fileID, checkpointID string) (*Detail, error) {
	f, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFile(ctx, actorID, f, access.ActionWrite); err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		cp, err := tx.GetCheckpoint(ctx, checkpointID)
		if err != nil {
			return err
		}
		if cp.FileID != fileID {
			// A checkpoint id from another file must never restore here.
			return ErrCheckpointNotFound
		}

		live, err := tx.GetFileForUpdate(ctx, fileID)
		if err != nil {
			return err
		}
		if err := s.snapshot(ctx, tx, fileID, live.Content); err != nil {
			return err
		}
		return tx.UpdateFile(ctx, fileID, nil, cp.Content.Clone(), nil)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetFileDetail(ctx, fileID)
}

// Search matches files by name or containing-group name across the actor's
// workspaces. A blank query is an empty result, not an error.
func (s *Service) Search(ctx context.Context, actorID, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	return s.repo.SearchFiles(ctx, actorID, query, searchResultLimit)
}

func (s *Service) snapshot(ctx context.Context, tx Repository, fileID string, content Content) error {
	cp := Checkpoint{
		ID:      uuid.NewString(),
		FileID:  fileID,
		Content: content.Clone(),
	}
	if err := tx.CreateCheckpoint(ctx, &cp); err != nil {
		return err
	}
	if s.retention > 0 {
		return tx.PruneCheckpoints(ctx, fileID, s.retention)
	}
	return nil
}
