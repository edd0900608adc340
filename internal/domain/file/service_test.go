package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"whiteboard-app-go/internal/domain/access"
)

var errGroupGone = errors.New("group not found")

type fakeCheckpoint struct {
	Checkpoint
	seq int
}

type fakeFileRepo struct {
	files       map[string]*File
	checkpoints []fakeCheckpoint
	seq         int

	// lockedReads counts GetFileForUpdate calls, so tests can assert the
	// snapshot source was read under a row lock.
	lockedReads int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*File)}
}

func (r *fakeFileRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeFileRepo) CreateFile(ctx context.Context, f *File) error {
	copied := *f
	copied.Content = f.Content.Clone()
	r.files[f.ID] = &copied
	return nil
}

func (r *fakeFileRepo) GetFile(ctx context.Context, id string) (*File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	copied := *f
	copied.Content = f.Content.Clone()
	return &copied, nil
}

func (r *fakeFileRepo) GetFileForUpdate(ctx context.Context, id string) (*File, error) {
	r.lockedReads++
	return r.GetFile(ctx, id)
}

func (r *fakeFileRepo) GetFileDetail(ctx context.Context, id string) (*Detail, error) {
	f, err := r.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{File: *f}, nil
}

func (r *fakeFileRepo) ListFiles(ctx context.Context, workspaceID string, groupID *string) ([]Detail, error) {
	var result []Detail
	for _, f := range r.files {
		if f.InTrash {
			continue
		}
		if groupID != nil && f.GroupID != *groupID {
			continue
		}
		result = append(result, Detail{File: *f})
	}
	return result, nil
}

func (r *fakeFileRepo) UpdateFile(ctx context.Context, id string, name *string, content Content, groupID *string) error {
	f, ok := r.files[id]
	if !ok {
		return ErrFileNotFound
	}
	if name != nil {
		f.Name = *name
	}
	if len(content) > 0 {
		f.Content = content.Clone()
	}
	if groupID != nil {
		f.GroupID = *groupID
	}
	return nil
}

func (r *fakeFileRepo) SoftDeleteFile(ctx context.Context, id string, at time.Time) error {
	f, ok := r.files[id]
	if !ok {
		return ErrFileNotFound
	}
	f.InTrash = true
	f.DeletedAt = &at
	return nil
}

func (r *fakeFileRepo) CreateCheckpoint(ctx context.Context, cp *Checkpoint) error {
	r.seq++
	stored := fakeCheckpoint{Checkpoint: *cp, seq: r.seq}
	stored.Content = cp.Content.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.checkpoints = append(r.checkpoints, stored)
	return nil
}

func (r *fakeFileRepo) GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error) {
	for _, cp := range r.checkpoints {
		if cp.ID == id {
			result := cp.Checkpoint
			result.Content = cp.Content.Clone()
			return &result, nil
		}
	}
	return nil, ErrCheckpointNotFound
}

func (r *fakeFileRepo) ListCheckpoints(ctx context.Context, fileID string, limit int) ([]Checkpoint, error) {
	var matched []fakeCheckpoint
	for _, cp := range r.checkpoints {
		if cp.FileID == fileID {
			matched = append(matched, cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	result := make([]Checkpoint, 0, len(matched))
	for _, cp := range matched {
		result = append(result, cp.Checkpoint)
	}
	return result, nil
}

func (r *fakeFileRepo) PruneCheckpoints(ctx context.Context, fileID string, keep int) error {
	var matched []fakeCheckpoint
	kept := r.checkpoints[:0]
	for _, cp := range r.checkpoints {
		if cp.FileID == fileID {
			matched = append(matched, cp)
		} else {
			kept = append(kept, cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	if len(matched) > keep {
		matched = matched[:keep]
	}
	r.checkpoints = append(kept, matched...)
	return nil
}

func (r *fakeFileRepo) SearchFiles(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	return []SearchResult{}, nil
}

type fakeGroups struct {
	workspaces map[string]string
}

func (g *fakeGroups) WorkspaceIDOf(ctx context.Context, groupID string) (string, error) {
	ws, ok := g.workspaces[groupID]
	if !ok {
		return "", errGroupGone
	}
	return ws, nil
}

type fakeMemberships struct {
	roles map[string]map[string]access.Role
}

func (m *fakeMemberships) RoleOf(ctx context.Context, workspaceID, userID string) (access.Role, error) {
	return m.roles[workspaceID][userID], nil
}

func newTestService(retention int) (*Service, *fakeFileRepo) {
	repo := newFakeFileRepo()
	groups := &fakeGroups{workspaces: map[string]string{
		"g-1": "ws-1",
		"g-2": "ws-1",
		"g-far": "ws-2",
	}}
	members := &fakeMemberships{roles: map[string]map[string]access.Role{
		"ws-1": {
			"owner":  access.RoleOwner,
			"admin":  access.RoleAdmin,
			"member": access.RoleMember,
			"viewer": access.RoleViewer,
		},
		"ws-2": {
			"member": access.RoleMember,
		},
	}}
	return NewService(repo, groups, members, retention), repo
}

func seedFile(repo *fakeFileRepo, id, groupID string, content string) {
	repo.files[id] = &File{ID: id, Name: id, GroupID: groupID, AuthorID: "member", Content: Content(content)}
}

func TestCreateFileDefaultContent(t *testing.T) {
	svc, repo := newTestService(0)

	d, err := svc.Create(context.Background(), "member", "g-1", "Sketch", nil)
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if !bytes.Equal(d.Content, DefaultContent) {
		t.Fatalf("expected default canvas, got %s", d.Content)
	}
	if d.AuthorID != "member" {
		t.Fatalf("expected author member, got %q", d.AuthorID)
	}
	if len(repo.checkpoints) != 0 {
		t.Fatalf("create must not produce checkpoints")
	}
}

func TestCreateFileRoleFloor(t *testing.T) {
	svc, _ := newTestService(0)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "viewer", "g-1", "Sketch", nil); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for viewer, got %v", err)
	}
	if _, err := svc.Create(ctx, "stranger", "g-1", "Sketch", nil); !errors.Is(err, access.ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership for stranger, got %v", err)
	}
	if _, err := svc.Create(ctx, "member", "g-missing", "Sketch", nil); !errors.Is(err, errGroupGone) {
		t.Fatalf("expected broken chain to deny, got %v", err)
	}
}

func TestUpdateContentCheckpointsPriorState(t *testing.T) {
	svc, repo := newTestService(0)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	d, err := svc.Update(ctx, "member", "f-1", nil, Content(`{"v":2}`), nil)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if !bytes.Equal(d.Content, Content(`{"v":2}`)) {
		t.Fatalf("expected live content v2, got %s", d.Content)
	}

	cps, _ := repo.ListCheckpoints(ctx, "f-1", 0)
	if len(cps) != 1 {
		t.Fatalf("expected exactly one checkpoint, got %d", len(cps))
	}
	if !bytes.Equal(cps[0].Content, Content(`{"v":1}`)) {
		t.Fatalf("checkpoint must hold the pre-save content, got %s", cps[0].Content)
	}
	if repo.lockedReads != 1 {
		t.Fatalf("expected the snapshot source to be read under a row lock, got %d locked reads", repo.lockedReads)
	}
}

func TestUpdateRejectsBlankName(t *testing.T) {
	svc, repo := newTestService(0)
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	blank := "   "
	if _, err := svc.Update(context.Background(), "member", "f-1", &blank, nil, nil); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired for whitespace name, got %v", err)
	}
}

func TestUpdateNameOnlySkipsCheckpoint(t *testing.T) {
	svc, repo := newTestService(0)
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	name := "Renamed"
	d, err := svc.Update(context.Background(), "member", "f-1", &name, nil, nil)
	if err != nil {
		t.Fatalf("expected rename to succeed, got %v", err)
	}
	if d.Name != "Renamed" {
		t.Fatalf("expected renamed file, got %q", d.Name)
	}
	if len(repo.checkpoints) != 0 {
		t.Fatalf("rename alone must not checkpoint, got %d", len(repo.checkpoints))
	}
	if repo.lockedReads != 0 {
		t.Fatalf("rename alone must not lock the row, got %d locked reads", repo.lockedReads)
	}
}

func TestUpdateByViewerForbidden(t *testing.T) {
	svc, repo := newTestService(0)
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	if _, err := svc.Update(context.Background(), "viewer", "f-1", nil, Content(`{"v":2}`), nil); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateMoveAcrossWorkspacesRejected(t *testing.T) {
	svc, repo := newTestService(0)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	target := "g-far"
	if _, err := svc.Update(ctx, "member", "f-1", nil, nil, &target); !errors.Is(err, ErrGroupMismatch) {
		t.Fatalf("expected ErrGroupMismatch, got %v", err)
	}

	// Moving within the workspace is fine.
	target = "g-2"
	d, err := svc.Update(ctx, "member", "f-1", nil, nil, &target)
	if err != nil {
		t.Fatalf("expected same-workspace move to succeed, got %v", err)
	}
	if d.GroupID != "g-2" {
		t.Fatalf("expected file in g-2, got %q", d.GroupID)
	}
}

func TestRestoreCheckpoint(t *testing.T) {
	svc, repo := newTestService(0)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	// Three saves produce three checkpoints (v1, v2, v3) with live v4.
	for _, v := range []string{`{"v":2}`, `{"v":3}`, `{"v":4}`} {
		if _, err := svc.Update(ctx, "member", "f-1", nil, Content(v), nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	cps, _ := repo.ListCheckpoints(ctx, "f-1", 0)
	if len(cps) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(cps))
	}

	// cps is newest-first: cps[1] holds v2.
	target := cps[1]
	d, err := svc.Restore(ctx, "member", "f-1", target.ID)
	if err != nil {
		t.Fatalf("expected restore to succeed, got %v", err)
	}
	if !bytes.Equal(d.Content, Content(`{"v":2}`)) {
		t.Fatalf("expected live content restored to v2, got %s", d.Content)
	}

	after, _ := repo.ListCheckpoints(ctx, "f-1", 0)
	if len(after) != 4 {
		t.Fatalf("expected 4 checkpoints after restore, got %d", len(after))
	}
	// The newest checkpoint preserves the pre-restore live content.
	if !bytes.Equal(after[0].Content, Content(`{"v":4}`)) {
		t.Fatalf("expected newest checkpoint to hold v4, got %s", after[0].Content)
	}
}

func TestRestoreRejectsForeignCheckpoint(t *testing.T) {
	svc, repo := newTestService(0)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":1}`)
	seedFile(repo, "f-2", "g-1", `{"other":true}`)

	if _, err := svc.Update(ctx, "member", "f-2", nil, Content(`{"other":2}`), nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	foreign, _ := repo.ListCheckpoints(ctx, "f-2", 0)

	if _, err := svc.Restore(ctx, "member", "f-1", foreign[0].ID); !errors.Is(err, ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound for cross-file restore, got %v", err)
	}
	// f-1 must be untouched, with no stray checkpoint.
	f, _ := repo.GetFile(ctx, "f-1")
	if !bytes.Equal(f.Content, Content(`{"v":1}`)) {
		t.Fatalf("cross-file restore must not change content, got %s", f.Content)
	}
	own, _ := repo.ListCheckpoints(ctx, "f-1", 0)
	if len(own) != 0 {
		t.Fatalf("cross-file restore must not checkpoint, got %d", len(own))
	}
}

func TestRestoreViewerForbidden(t *testing.T) {
	svc, repo := newTestService(0)
	seedFile(repo, "f-1", "g-1", `{"v":1}`)
	_ = repo.CreateCheckpoint(context.Background(), &Checkpoint{ID: "cp-1", FileID: "f-1", Content: Content(`{"v":0}`)})

	if _, err := svc.Restore(context.Background(), "viewer", "f-1", "cp-1"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCheckpointRetentionCap(t *testing.T) {
	svc, repo := newTestService(3)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":0}`)

	for i := 1; i <= 6; i++ {
		content := Content(fmt.Sprintf(`{"v":%d}`, i))
		if _, err := svc.Update(ctx, "member", "f-1", nil, content, nil); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	cps, _ := repo.ListCheckpoints(ctx, "f-1", 0)
	if len(cps) != 3 {
		t.Fatalf("expected retention to keep 3 checkpoints, got %d", len(cps))
	}
	// The newest checkpoint still holds the immediately prior content.
	if !bytes.Equal(cps[0].Content, Content(`{"v":5}`)) {
		t.Fatalf("expected newest checkpoint v5, got %s", cps[0].Content)
	}
}

func TestSoftDelete(t *testing.T) {
	svc, repo := newTestService(0)
	ctx := context.Background()
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	if _, err := svc.Delete(ctx, "member", "f-1"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member delete, got %v", err)
	}

	f, err := svc.Delete(ctx, "admin", "f-1")
	if err != nil {
		t.Fatalf("expected admin delete to succeed, got %v", err)
	}
	if !f.InTrash || f.DeletedAt == nil {
		t.Fatalf("expected trashed file with deletion time, got %+v", f)
	}

	// Trashed files disappear from listings but stay in the store.
	listed, _ := svc.List(ctx, "member", "ws-1", nil)
	if len(listed) != 0 {
		t.Fatalf("expected trashed file hidden from list, got %d", len(listed))
	}
	if _, err := repo.GetFile(ctx, "f-1"); err != nil {
		t.Fatalf("soft delete must keep the record, got %v", err)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	svc, _ := newTestService(0)

	results, err := svc.Search(context.Background(), "member", "   ")
	if err != nil {
		t.Fatalf("blank query must not error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("blank query must return empty list, got %d", len(results))
	}
}

func TestGetHidesExistenceFromNonMembers(t *testing.T) {
	svc, repo := newTestService(0)
	seedFile(repo, "f-1", "g-1", `{"v":1}`)

	if _, err := svc.Get(context.Background(), "stranger", "f-1"); !errors.Is(err, access.ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "viewer", "f-1"); err != nil {
		t.Fatalf("expected viewer read to succeed, got %v", err)
	}
}
