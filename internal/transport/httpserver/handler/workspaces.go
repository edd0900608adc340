package handler

import (
	"net/http"
	"strings"
	"time"

	"whiteboard-app-go/internal/domain/access"
	groupdomain "whiteboard-app-go/internal/domain/group"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
	"whiteboard-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateWorkspaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type workspaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type workspaceDetailResponse struct {
	workspaceResponse
	Members []memberResponse `json:"members"`
	Groups  []groupNode      `json:"groups"`
}

type groupNode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ParentID  *string     `json:"parentId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Children  []groupNode `json:"children"`
}

func toWorkspaceResponse(ws *workspacedomain.Workspace, role string) workspaceResponse {
	return workspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Slug:        ws.Slug,
		Description: ws.Description,
		Role:        role,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

// buildGroupTree nests a flat group listing under its root groups.
func buildGroupTree(groups []groupdomain.Group) []groupNode {
	children := make(map[string][]groupdomain.Group)
	var roots []groupdomain.Group
	for _, g := range groups {
		if g.ParentID == nil {
			roots = append(roots, g)
			continue
		}
		children[*g.ParentID] = append(children[*g.ParentID], g)
	}

	var build func(g groupdomain.Group) groupNode
	build = func(g groupdomain.Group) groupNode {
		node := groupNode{
			ID:        g.ID,
			Name:      g.Name,
			ParentID:  g.ParentID,
			CreatedAt: g.CreatedAt,
			UpdatedAt: g.UpdatedAt,
			Children:  []groupNode{},
		}
		for _, child := range children[g.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	tree := make([]groupNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree
}

func (h *Handlers) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	summaries, err := h.Workspaces.List(r.Context(), actorID)
	if err != nil {
		h.respondError(w, "workspaces.list: list failed", err, "user_id", actorID)
		return
	}

	response := make([]workspaceResponse, 0, len(summaries))
	for _, s := range summaries {
		s := s
		response = append(response, toWorkspaceResponse(&s.Workspace, string(s.Role)))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	ws, err := h.Workspaces.Create(r.Context(), actorID, req.Name, strings.TrimSpace(req.Description), workspacedomain.DefaultGroupName)
	if err != nil {
		h.respondError(w, "workspaces.create: create failed", err, "user_id", actorID)
		return
	}

	writeJSON(w, http.StatusCreated, toWorkspaceResponse(ws, string(access.RoleOwner)))
}

func (h *Handlers) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")

	ws, err := h.Workspaces.Get(r.Context(), actorID, workspaceID)
	if err != nil {
		h.respondError(w, "workspaces.get: get failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}
	role, err := h.Workspaces.RoleOf(r.Context(), workspaceID, actorID)
	if err != nil {
		h.respondError(w, "workspaces.get: role lookup failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}
	members, err := h.Workspaces.ListMembers(r.Context(), actorID, workspaceID)
	if err != nil {
		h.respondError(w, "workspaces.get: list members failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}
	groups, err := h.Groups.List(r.Context(), actorID, workspaceID)
	if err != nil {
		h.respondError(w, "workspaces.get: list groups failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	writeJSON(w, http.StatusOK, workspaceDetailResponse{
		workspaceResponse: toWorkspaceResponse(ws, string(role)),
		Members:           toMemberResponses(members),
		Groups:            buildGroupTree(groups),
	})
}

func (h *Handlers) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req updateWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Name == nil && req.Description == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")

	ws, err := h.Workspaces.Update(r.Context(), actorID, workspaceID, req.Name, req.Description)
	if err != nil {
		h.respondError(w, "workspaces.update: update failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	role, err := h.Workspaces.RoleOf(r.Context(), workspaceID, actorID)
	if err != nil {
		h.respondError(w, "workspaces.update: resolve role failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	writeJSON(w, http.StatusOK, toWorkspaceResponse(ws, string(role)))
}

func (h *Handlers) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	workspaceID := chi.URLParam(r, "id")

	if err := h.Workspaces.Delete(r.Context(), actorID, workspaceID); err != nil {
		h.respondError(w, "workspaces.delete: delete failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
