package group

import (
	"context"
	"errors"
	"time"

	filedomain "whiteboard-app-go/internal/domain/file"
	domain "whiteboard-app-go/internal/domain/group"
	"gorm.io/gorm"
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

func (r *PostgresRepository) CreateGroup(ctx context.Context, g *domain.Group) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *PostgresRepository) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *PostgresRepository) ListGroups(ctx context.Context, workspaceID string) ([]domain.Group, error) {
	var groups []domain.Group
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, parentID string) ([]domain.Group, error) {
	var groups []domain.Group
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at asc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) UpdateGroup(ctx context.Context, id string, name *string, parentID *string, clearParent bool) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if name != nil {
		updates["name"] = *name
	}
	if clearParent {
		updates["parent_id"] = nil
	} else if parentID != nil {
		updates["parent_id"] = *parentID
	}

	result := r.db.WithContext(ctx).Model(&domain.Group{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// DeleteGroupCascade collects the whole subtree first, then deletes
// checkpoints, files and groups bottom-up.
func (r *PostgresRepository) DeleteGroupCascade(ctx context.Context, id string) error {
	ids := []string{id}
	frontier := []string{id}
	for len(frontier) > 0 {
		var children []string
		if err := r.db.WithContext(ctx).Model(&domain.Group{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return err
		}
		ids = append(ids, children...)
		frontier = children
	}

	db := r.db.WithContext(ctx)
	if err := db.Exec(`
		DELETE FROM checkpoints WHERE file_id IN (
			SELECT id FROM files WHERE group_id IN ?
		)`, ids).Error; err != nil {
		return err
	}
	if err := db.Where("group_id IN ?", ids).Delete(&filedomain.File{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&domain.Group{}).Error
}
