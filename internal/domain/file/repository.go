package file

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateFile(ctx context.Context, f *File) error
	GetFile(ctx context.Context, id string) (*File, error)
	// GetFileForUpdate reads a file holding a row lock for the rest of the
	// surrounding transaction, so checkpoint-then-overwrite pairs on the
	// same file serialize instead of both snapshotting the same version.
	GetFileForUpdate(ctx context.Context, id string) (*File, error)
	GetFileDetail(ctx context.Context, id string) (*Detail, error)
	// ListFiles returns non-trashed files in a workspace, newest update
	// first, optionally narrowed to one group.
	ListFiles(ctx context.Context, workspaceID string, groupID *string) ([]Detail, error)
	UpdateFile(ctx context.Context, id string, name *string, content Content, groupID *string) error
	SoftDeleteFile(ctx context.Context, id string, at time.Time) error

	CreateCheckpoint(ctx context.Context, cp *Checkpoint) error
	GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error)
	// ListCheckpoints returns snapshots newest-first; limit <= 0 means all.
	ListCheckpoints(ctx context.Context, fileID string, limit int) ([]Checkpoint, error)
	// PruneCheckpoints drops the oldest snapshots beyond keep.
	PruneCheckpoints(ctx context.Context, fileID string, keep int) error

	// SearchFiles matches non-trashed files across the user's workspaces
	// by file or group name, case-insensitively, newest update first.
	SearchFiles(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)
}
