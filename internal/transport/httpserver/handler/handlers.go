package handler

import (
	filedomain "whiteboard-app-go/internal/domain/file"
	groupdomain "whiteboard-app-go/internal/domain/group"
	userdomain "whiteboard-app-go/internal/domain/user"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
	"whiteboard-app-go/pkg/logger"
)

type Handlers struct {
	Users      *userdomain.Service
	Workspaces *workspacedomain.Service
	Groups     *groupdomain.Service
	Files      *filedomain.Service
	log        logger.Logger
}

func New(users *userdomain.Service, workspaces *workspacedomain.Service, groups *groupdomain.Service, files *filedomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Users:      users,
		Workspaces: workspaces,
		Groups:     groups,
		Files:      files,
		log:        log,
	}
}
