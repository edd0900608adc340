package file

import "errors"

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrNameRequired       = errors.New("name must not be empty")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrGroupMismatch      = errors.New("target group belongs to a different workspace")
)
