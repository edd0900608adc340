package group

import "time"

// Group is a folder-like container. Groups form a tree within a workspace
// via ParentID; a nil parent means the group sits at the workspace root.
type Group struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	WorkspaceID string    `gorm:"type:uuid;not null;index"`
	ParentID    *string   `gorm:"type:uuid;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
