package httpserver

import (
	"net/http"
	"time"

	"whiteboard-app-go/internal/config"
	"whiteboard-app-go/internal/transport/httpserver/handler"
	authmw "whiteboard-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORS.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Post("/auth/signup", handlers.Signup)

		auth := authmw.NewJWTAuth(cfg.Auth)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/workspaces", handlers.ListWorkspaces)
			r.Post("/workspaces", handlers.CreateWorkspace)
			r.Get("/workspaces/{id}", handlers.GetWorkspace)
			r.Patch("/workspaces/{id}", handlers.UpdateWorkspace)
			r.Delete("/workspaces/{id}", handlers.DeleteWorkspace)
			r.Get("/workspaces/{id}/members", handlers.ListWorkspaceMembers)
			r.Put("/workspaces/{id}/members/{userID}", handlers.SetWorkspaceMemberRole)
			r.Delete("/workspaces/{id}/members/{userID}", handlers.RemoveWorkspaceMember)

			r.Get("/groups", handlers.ListGroups)
			r.Post("/groups", handlers.CreateGroup)
			r.Get("/groups/{id}", handlers.GetGroup)
			r.Patch("/groups/{id}", handlers.UpdateGroup)
			r.Delete("/groups/{id}", handlers.DeleteGroup)

			r.Get("/files", handlers.ListFiles)
			r.Post("/files", handlers.CreateFile)
			r.Get("/files/{id}", handlers.GetFile)
			r.Patch("/files/{id}", handlers.UpdateFile)
			r.Delete("/files/{id}", handlers.DeleteFile)
			r.Get("/files/{id}/checkpoints", handlers.ListCheckpoints)
			r.Post("/files/{id}/checkpoints", handlers.RestoreCheckpoint)

			r.Get("/search", handlers.Search)
		})
	})

	return r
}
