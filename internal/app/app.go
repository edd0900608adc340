package app

import (
	"net/http"

	"whiteboard-app-go/internal/config"
	"whiteboard-app-go/internal/db"
	filedomain "whiteboard-app-go/internal/domain/file"
	groupdomain "whiteboard-app-go/internal/domain/group"
	userdomain "whiteboard-app-go/internal/domain/user"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
	filerepo "whiteboard-app-go/internal/repository/postgres/file"
	grouprepo "whiteboard-app-go/internal/repository/postgres/group"
	userrepo "whiteboard-app-go/internal/repository/postgres/user"
	workspacerepo "whiteboard-app-go/internal/repository/postgres/workspace"
	"whiteboard-app-go/internal/transport/httpserver"
	"whiteboard-app-go/internal/transport/httpserver/handler"
	"whiteboard-app-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	users := userdomain.NewService(userrepo.NewPostgres(dbConn))
	workspaces := workspacedomain.NewService(workspacerepo.NewPostgres(dbConn), users)
	groups := groupdomain.NewService(grouprepo.NewPostgres(dbConn), workspaces)
	files := filedomain.NewService(filerepo.NewPostgres(dbConn), groups, workspaces, cfg.Files.CheckpointRetention)

	handlers := handler.New(users, workspaces, groups, files, log)

	log.Info("app: initializing http server")
	router := httpserver.NewRouter(cfg, handlers)
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
