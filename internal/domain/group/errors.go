package group

import "errors"

var (
	ErrGroupNotFound           = errors.New("group not found")
	ErrNameRequired            = errors.New("name must not be empty")
	ErrParentNotFound          = errors.New("parent group not found")
	ErrParentWorkspaceMismatch = errors.New("parent group belongs to a different workspace")
	ErrParentCycle             = errors.New("group cannot be its own ancestor")
)
