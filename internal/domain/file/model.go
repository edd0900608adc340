package file

import "time"

type File struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"not null"`
	GroupID   string     `gorm:"type:uuid;not null;index"`
	AuthorID  string     `gorm:"type:uuid;not null;index"`
	Content   Content    `gorm:"type:jsonb"`
	InTrash   bool       `gorm:"not null;default:false"`
	DeletedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

// Checkpoint is an immutable full-document snapshot taken before every
// content overwrite.
type Checkpoint struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	FileID    string    `gorm:"type:uuid;not null;index"`
	Content   Content   `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type AuthorSummary struct {
	ID    string
	Name  string
	Email string
	Image *string
}

type GroupSummary struct {
	ID   string
	Name string
}

// Detail is a file joined with its author and containing group, the shape
// read paths hand to transport.
type Detail struct {
	File
	Author AuthorSummary
	Group  GroupSummary
}

// SearchResult is a matched file with the context shown in search listings.
type SearchResult struct {
	File
	GroupName     string
	WorkspaceName string
}
