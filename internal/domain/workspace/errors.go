package workspace

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNameRequired      = errors.New("name must not be empty")
	ErrMemberNotFound    = errors.New("member not found")
	ErrSlugTaken         = errors.New("slug already taken")
	ErrSlugExhausted     = errors.New("workspace slug generation exhausted")
	ErrLastOwner         = errors.New("workspace must keep at least one owner")
	ErrInvalidRole       = errors.New("invalid role")
)
