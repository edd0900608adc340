package workspace

import (
	"time"

	"whiteboard-app-go/internal/domain/access"
)

type Workspace struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Slug        string    `gorm:"type:text;not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Membership binds a user to a workspace with a role; the pair is unique and
// its presence is the sole source of authorization decisions.
type Membership struct {
	WorkspaceID string      `gorm:"type:uuid;primaryKey"`
	UserID      string      `gorm:"type:uuid;primaryKey"`
	Role        access.Role `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`

	Workspace Workspace `gorm:"foreignKey:WorkspaceID;references:ID;constraint:OnDelete:CASCADE"`
}

// Summary pairs a workspace with the requesting member's role, for listings.
type Summary struct {
	Workspace
	Role access.Role
}

// MemberProfile is a membership row joined with the user's public profile.
type MemberProfile struct {
	UserID   string
	Role     access.Role
	JoinedAt time.Time
	Name     string
	Email    string
	Image    *string
}
