package workspace

import (
	"context"
	"errors"
	"time"

	"whiteboard-app-go/internal/domain/access"
	groupdomain "whiteboard-app-go/internal/domain/group"
	domain "whiteboard-app-go/internal/domain/workspace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	err := r.db.WithContext(ctx).Create(ws).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *PostgresRepository) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *PostgresRepository) ListWorkspacesByUser(ctx context.Context, userID string) ([]domain.Summary, error) {
	type row struct {
		domain.Workspace
		Role access.Role `gorm:"column:role"`
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Table("workspaces").
		Select("workspaces.*, memberships.role").
		Joins("join memberships on memberships.workspace_id = workspaces.id").
		Where("memberships.user_id = ?", userID).
		Order("workspaces.created_at desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]domain.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domain.Summary{Workspace: row.Workspace, Role: row.Role})
	}
	return summaries, nil
}

func (r *PostgresRepository) UpdateWorkspace(ctx context.Context, id string, name, description *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}

	result := r.db.WithContext(ctx).Model(&domain.Workspace{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}

// DeleteWorkspaceCascade removes the workspace bottom-up so no orphaned
// rows survive: checkpoints, files, groups, memberships, the workspace.
func (r *PostgresRepository) DeleteWorkspaceCascade(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)

	if err := db.Exec(`
		DELETE FROM checkpoints WHERE file_id IN (
			SELECT files.id FROM files
			JOIN groups ON groups.id = files.group_id
			WHERE groups.workspace_id = ?
		)`, id).Error; err != nil {
		return err
	}
	if err := db.Exec(`
		DELETE FROM files WHERE group_id IN (
			SELECT id FROM groups WHERE workspace_id = ?
		)`, id).Error; err != nil {
		return err
	}
	if err := db.Where("workspace_id = ?", id).Delete(&groupdomain.Group{}).Error; err != nil {
		return err
	}
	if err := db.Where("workspace_id = ?", id).Delete(&domain.Membership{}).Error; err != nil {
		return err
	}
	return db.Delete(&domain.Workspace{}, "id = ?", id).Error
}

func (r *PostgresRepository) IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Workspace{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) GetMembership(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	var member domain.Membership
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, workspaceID string) ([]domain.MemberProfile, error) {
	type row struct {
		UserID   string      `gorm:"column:user_id"`
		Role     access.Role `gorm:"column:role"`
		JoinedAt time.Time   `gorm:"column:created_at"`
		Name     string      `gorm:"column:name"`
		Email    string      `gorm:"column:email"`
		Image    *string     `gorm:"column:image"`
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Table("memberships").
		Select("memberships.user_id, memberships.role, memberships.created_at, users.name, users.email, users.image").
		Joins("join users on users.id = memberships.user_id").
		Where("memberships.workspace_id = ?", workspaceID).
		Order("memberships.created_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]domain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		members = append(members, domain.MemberProfile{
			UserID:   row.UserID,
			Role:     row.Role,
			JoinedAt: row.JoinedAt,
			Name:     row.Name,
			Email:    row.Email,
			Image:    row.Image,
		})
	}
	return members, nil
}

func (r *PostgresRepository) UpsertMembership(ctx context.Context, member *domain.Membership) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"role": member.Role}),
		}).
		Omit("Workspace").
		Create(member).Error
}

func (r *PostgresRepository) DeleteMembership(ctx context.Context, workspaceID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&domain.Membership{}, "workspace_id = ? AND user_id = ?", workspaceID, userID).Error
}

func (r *PostgresRepository) CountOwners(ctx context.Context, workspaceID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("workspace_id = ? AND role = ?", workspaceID, access.RoleOwner).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) SeedGroup(ctx context.Context, groupID, workspaceID, name string) error {
	return r.db.WithContext(ctx).Create(&groupdomain.Group{
		ID:          groupID,
		Name:        name,
		WorkspaceID: workspaceID,
	}).Error
}
