package handler

import (
	"net/http"
	"strings"

	userdomain "whiteboard-app-go/internal/domain/user"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
	"whiteboard-app-go/internal/transport/httpserver/middleware"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

func toUserResponse(u userdomain.Public) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Image: u.Image}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name, email and password are required")
		return
	}

	u, err := h.Users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, "auth.signup: signup failed", err, "email", req.Email)
		return
	}

	// Every fresh account starts with a personal workspace.
	if _, err := h.Workspaces.Create(r.Context(), u.ID, u.Name+"'s Workspace", "", workspacedomain.SignupGroupName); err != nil {
		h.respondError(w, "auth.signup: provision workspace failed", err, "user_id", u.ID)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u.Public()))
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	u, err := h.Users.Get(r.Context(), actorID)
	if err != nil {
		h.respondError(w, "auth.me: get user failed", err, "user_id", actorID)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u.Public()))
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
