package file

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "whiteboard-app-go/internal/domain/file"
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

func (r *PostgresRepository) CreateFile(ctx context.Context, f *domain.File) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *PostgresRepository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	var f domain.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PostgresRepository) GetFileForUpdate(ctx context.Context, id string) (*domain.File, error) {
	var f domain.File
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

type detailRow struct {
	domain.File
	AuthorName  string  `gorm:"column:author_name"`
	AuthorEmail string  `gorm:"column:author_email"`
	AuthorImage *string `gorm:"column:author_image"`
	GroupName   string  `gorm:"column:group_name"`
}

func (row detailRow) toDetail() domain.Detail {
	return domain.Detail{
		File: row.File,
		Author: domain.AuthorSummary{
			ID:    row.File.AuthorID,
			Name:  row.AuthorName,
			Email: row.AuthorEmail,
			Image: row.AuthorImage,
		},
		Group: domain.GroupSummary{
			ID:   row.File.GroupID,
			Name: row.GroupName,
		},
	}
}

func (r *PostgresRepository) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("files").
		Select("files.*, users.name as author_name, users.email as author_email, users.image as author_image, groups.name as group_name").
		Joins("join groups on groups.id = files.group_id").
		Joins("left join users on users.id = files.author_id")
}

func (r *PostgresRepository) GetFileDetail(ctx context.Context, id string) (*domain.Detail, error) {
	var row detailRow
	result := r.detailQuery(ctx).Where("files.id = ?", id).Limit(1).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrFileNotFound
	}
	detail := row.toDetail()
	return &detail, nil
}

func (r *PostgresRepository) ListFiles(ctx context.Context, workspaceID string, groupID *string) ([]domain.Detail, error) {
	query := r.detailQuery(ctx).
		Where("groups.workspace_id = ? AND files.in_trash = ?", workspaceID, false).
		Order("files.updated_at desc")
	if groupID != nil {
		query = query.Where("files.group_id = ?", *groupID)
	}

	var rows []detailRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	details := make([]domain.Detail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.toDetail())
	}
	return details, nil
}

func (r *PostgresRepository) UpdateFile(ctx context.Context, id string, name *string, content domain.Content, groupID *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if name != nil {
		updates["name"] = *name
	}
	if len(content) > 0 {
		updates["content"] = content
	}
	if groupID != nil {
		updates["group_id"] = *groupID
	}

	result := r.db.WithContext(ctx).Model(&domain.File{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

func (r *PostgresRepository) SoftDeleteFile(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.File{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"in_trash":   true,
			"deleted_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateCheckpoint(ctx context.Context, cp *domain.Checkpoint) error {
	return r.db.WithContext(ctx).Create(cp).Error
}

func (r *PostgresRepository) GetCheckpoint(ctx context.Context, id string) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, err
	}
	return &cp, nil
}

func (r *PostgresRepository) ListCheckpoints(ctx context.Context, fileID string, limit int) ([]domain.Checkpoint, error) {
	query := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var checkpoints []domain.Checkpoint
	if err := query.Find(&checkpoints).Error; err != nil {
		return nil, err
	}
	return checkpoints, nil
}

func (r *PostgresRepository) PruneCheckpoints(ctx context.Context, fileID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM checkpoints
		WHERE file_id = ? AND id NOT IN (
			SELECT id FROM checkpoints
			WHERE file_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)`, fileID, fileID, keep).Error
}

type searchRow struct {
	domain.File
	GroupName     string `gorm:"column:group_name"`
	WorkspaceName string `gorm:"column:workspace_name"`
}

// likeEscaper neutralizes LIKE metacharacters in user input so a query of
// "%" matches a literal percent sign instead of every row.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresRepository) SearchFiles(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	var rows []searchRow
	if err := r.db.WithContext(ctx).
		Table("files").
		Select("files.*, groups.name as group_name, workspaces.name as workspace_name").
		Joins("join groups on groups.id = files.group_id").
		Joins("join workspaces on workspaces.id = groups.workspace_id").
		Joins("join memberships on memberships.workspace_id = workspaces.id").
		Where("memberships.user_id = ?", userID).
		Where("files.in_trash = ?", false).
		Where(`(LOWER(files.name) LIKE ? ESCAPE '\' OR LOWER(groups.name) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("files.updated_at desc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.SearchResult{
			File:          row.File,
			GroupName:     row.GroupName,
			WorkspaceName: row.WorkspaceName,
		})
	}
	return results, nil
}
