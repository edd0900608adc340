package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	groupdomain "whiteboard-app-go/internal/domain/group"
	"whiteboard-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createGroupRequest struct {
	Name        string  `json:"name"`
	WorkspaceID string  `json:"workspaceId"`
	ParentID    *string `json:"parentId"`
}

// updateGroupRequest keeps parentId raw so an explicit null (move to root)
// is distinguishable from the field being absent.
type updateGroupRequest struct {
	Name     *string         `json:"name"`
	ParentID json.RawMessage `json:"parentId"`
}

type groupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspaceId"`
	ParentID    *string   `json:"parentId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type groupDetailResponse struct {
	groupResponse
	Children []groupResponse `json:"children"`
	Files    []fileResponse  `json:"files"`
}

func toGroupResponse(g *groupdomain.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		WorkspaceID: g.WorkspaceID,
		ParentID:    g.ParentID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := strings.TrimSpace(r.URL.Query().Get("workspaceId"))
	if workspaceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "workspaceId is required")
		return
	}

	groups, err := h.Groups.List(r.Context(), actorID, workspaceID)
	if err != nil {
		h.respondError(w, "groups.list: list failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	response := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		g := g
		response = append(response, toGroupResponse(&g))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.WorkspaceID = strings.TrimSpace(req.WorkspaceID)
	if req.Name == "" || req.WorkspaceID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name and workspaceId are required")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	g, err := h.Groups.Create(r.Context(), actorID, req.WorkspaceID, req.Name, req.ParentID)
	if err != nil {
		h.respondError(w, "groups.create: create failed", err, "user_id", actorID, "workspace_id", req.WorkspaceID)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupResponse(g))
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "id")

	g, err := h.Groups.Get(r.Context(), actorID, groupID)
	if err != nil {
		h.respondError(w, "groups.get: get failed", err, "user_id", actorID, "group_id", groupID)
		return
	}
	children, err := h.Groups.Children(r.Context(), actorID, groupID)
	if err != nil {
		h.respondError(w, "groups.get: list children failed", err, "user_id", actorID, "group_id", groupID)
		return
	}
	files, err := h.Files.List(r.Context(), actorID, g.WorkspaceID, &g.ID)
	if err != nil {
		h.respondError(w, "groups.get: list files failed", err, "user_id", actorID, "group_id", groupID)
		return
	}

	childResponses := make([]groupResponse, 0, len(children))
	for _, child := range children {
		child := child
		childResponses = append(childResponses, toGroupResponse(&child))
	}

	writeJSON(w, http.StatusOK, groupDetailResponse{
		groupResponse: toGroupResponse(g),
		Children:      childResponses,
		Files:         toFileResponses(files),
	})
}

func (h *Handlers) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	var parentID *string
	clearParent := false
	switch {
	case len(req.ParentID) == 0:
	case string(req.ParentID) == "null":
		clearParent = true
	default:
		var parsed string
		if err := json.Unmarshal(req.ParentID, &parsed); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "parentId must be a string or null")
			return
		}
		parentID = &parsed
	}
	if req.Name == nil && parentID == nil && !clearParent {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "id")

	g, err := h.Groups.Update(r.Context(), actorID, groupID, req.Name, parentID, clearParent)
	if err != nil {
		h.respondError(w, "groups.update: update failed", err, "user_id", actorID, "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "id")

	if err := h.Groups.Delete(r.Context(), actorID, groupID); err != nil {
		h.respondError(w, "groups.delete: delete failed", err, "user_id", actorID, "group_id", groupID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
