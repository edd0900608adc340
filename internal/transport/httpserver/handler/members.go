package handler

import (
	"net/http"
	"strings"
	"time"

	"whiteboard-app-go/internal/domain/access"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
	"whiteboard-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type setMemberRoleRequest struct {
	Role string `json:"role"`
}

type memberResponse struct {
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Image    *string   `json:"image,omitempty"`
}

func toMemberResponses(members []workspacedomain.MemberProfile) []memberResponse {
	response := make([]memberResponse, 0, len(members))
	for _, m := range members {
		response = append(response, memberResponse{
			UserID:   m.UserID,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
			Name:     m.Name,
			Email:    m.Email,
			Image:    m.Image,
		})
	}
	return response
}

func (h *Handlers) ListWorkspaceMembers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")

	members, err := h.Workspaces.ListMembers(r.Context(), actorID, workspaceID)
	if err != nil {
		h.respondError(w, "members.list: list failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	writeJSON(w, http.StatusOK, toMemberResponses(members))
}

func (h *Handlers) SetWorkspaceMemberRole(w http.ResponseWriter, r *http.Request) {
	var req setMemberRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")
	memberID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "userID is required")
		return
	}

	role := access.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err := h.Workspaces.SetMemberRole(r.Context(), actorID, workspaceID, memberID, role); err != nil {
		h.respondError(w, "members.set_role: update failed", err,
			"actor_id", actorID, "workspace_id", workspaceID, "member_id", memberID, "role", string(role))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RemoveWorkspaceMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")
	memberID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "userID is required")
		return
	}

	if err := h.Workspaces.RemoveMember(r.Context(), actorID, workspaceID, memberID); err != nil {
		h.respondError(w, "members.remove: remove failed", err,
			"actor_id", actorID, "workspace_id", workspaceID, "member_id", memberID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
