package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	filedomain "whiteboard-app-go/internal/domain/file"
	"whiteboard-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

// checkpointsInFileView caps how many recent snapshots ride along on a
// single-file read.
const checkpointsInFileView = 10

type createFileRequest struct {
	Name    string          `json:"name"`
	GroupID string          `json:"groupId"`
	Content json.RawMessage `json:"content"`
}

type updateFileRequest struct {
	Name    *string         `json:"name"`
	GroupID *string         `json:"groupId"`
	Content json.RawMessage `json:"content"`
}

type restoreCheckpointRequest struct {
	CheckpointID string `json:"checkpointId"`
}

type fileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	GroupID   string          `json:"groupId"`
	Content   json.RawMessage `json:"content"`
	InTrash   bool            `json:"inTrash"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Author    authorResponse  `json:"author"`
	Group     groupSummary    `json:"group"`
}

type authorResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

type groupSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileDetailResponse struct {
	fileResponse
	Checkpoints []checkpointResponse `json:"checkpoints"`
}

type checkpointResponse struct {
	ID        string          `json:"id"`
	FileID    string          `json:"fileId"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toFileResponse(d *filedomain.Detail) fileResponse {
	return fileResponse{
		ID:        d.ID,
		Name:      d.Name,
		GroupID:   d.GroupID,
		Content:   json.RawMessage(d.Content),
		InTrash:   d.InTrash,
		DeletedAt: d.DeletedAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Author: authorResponse{
			ID:    d.Author.ID,
			Name:  d.Author.Name,
			Email: d.Author.Email,
			Image: d.Author.Image,
		},
		Group: groupSummary{ID: d.Group.ID, Name: d.Group.Name},
	}
}

func toFileResponses(details []filedomain.Detail) []fileResponse {
	response := make([]fileResponse, 0, len(details))
	for _, d := range details {
		d := d
		response = append(response, toFileResponse(&d))
	}
	return response
}

func toCheckpointResponses(checkpoints []filedomain.Checkpoint) []checkpointResponse {
	response := make([]checkpointResponse, 0, len(checkpoints))
	for _, cp := range checkpoints {
		response = append(response, checkpointResponse{
			ID:        cp.ID,
			FileID:    cp.FileID,
			Content:   json.RawMessage(cp.Content),
			CreatedAt: cp.CreatedAt,
		})
	}
	return response
}

func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
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
	var groupID *string
	if value := strings.TrimSpace(r.URL.Query().Get("groupId")); value != "" {
		groupID = &value
	}

	details, err := h.Files.List(r.Context(), actorID, workspaceID, groupID)
	if err != nil {
		h.respondError(w, "files.list: list failed", err, "user_id", actorID, "workspace_id", workspaceID)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(details))
}

func (h *Handlers) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req createFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.GroupID = strings.TrimSpace(req.GroupID)
	if req.Name == "" || req.GroupID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name and groupId are required")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	d, err := h.Files.Create(r.Context(), actorID, req.GroupID, req.Name, filedomain.Content(req.Content))
	if err != nil {
		h.respondError(w, "files.create: create failed", err, "user_id", actorID, "group_id", req.GroupID)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(d))
}

func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	fileID := chi.URLParam(r, "id")

	d, err := h.Files.Get(r.Context(), actorID, fileID)
	if err != nil {
		h.respondError(w, "files.get: get failed", err, "user_id", actorID, "file_id", fileID)
		return
	}
	checkpoints, err := h.Files.Checkpoints(r.Context(), actorID, fileID, checkpointsInFileView)
	if err != nil {
		h.respondError(w, "files.get: list checkpoints failed", err, "user_id", actorID, "file_id", fileID)
		return
	}

	writeJSON(w, http.StatusOK, fileDetailResponse{
		fileResponse: toFileResponse(d),
		Checkpoints:  toCheckpointResponses(checkpoints),
	})
}

func (h *Handlers) UpdateFile(w http.ResponseWriter, r *http.Request) {
	var req updateFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if req.Name == nil && req.GroupID == nil && len(req.Content) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "nothing to update")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	fileID := chi.URLParam(r, "id")

	d, err := h.Files.Update(r.Context(), actorID, fileID, req.Name, filedomain.Content(req.Content), req.GroupID)
	if err != nil {
		h.respondError(w, "files.update: update failed", err, "user_id", actorID, "file_id", fileID)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(d))
}

func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	fileID := chi.URLParam(r, "id")

	if _, err := h.Files.Delete(r.Context(), actorID, fileID); err != nil {
		h.respondError(w, "files.delete: delete failed", err, "user_id", actorID, "file_id", fileID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	fileID := chi.URLParam(r, "id")

	checkpoints, err := h.Files.Checkpoints(r.Context(), actorID, fileID, 0)
	if err != nil {
		h.respondError(w, "checkpoints.list: list failed", err, "user_id", actorID, "file_id", fileID)
		return
	}

	writeJSON(w, http.StatusOK, toCheckpointResponses(checkpoints))
}

func (h *Handlers) RestoreCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req restoreCheckpointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.CheckpointID = strings.TrimSpace(req.CheckpointID)
	if req.CheckpointID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "checkpointId is required")
		return
	}

	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	fileID := chi.URLParam(r, "id")

	d, err := h.Files.Restore(r.Context(), actorID, fileID, req.CheckpointID)
	if err != nil {
		h.respondError(w, "checkpoints.restore: restore failed", err,
			"user_id", actorID, "file_id", fileID, "checkpoint_id", req.CheckpointID)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(d))
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	results, err := h.Files.Search(r.Context(), actorID, r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, "search: search failed", err, "user_id", actorID)
		return
	}

	type searchResponse struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		GroupID       string    `json:"groupId"`
		GroupName     string    `json:"groupName"`
		WorkspaceName string    `json:"workspaceName"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}
	response := make([]searchResponse, 0, len(results))
	for _, result := range results {
		response = append(response, searchResponse{
			ID:            result.ID,
			Name:          result.Name,
			GroupID:       result.GroupID,
			GroupName:     result.GroupName,
			WorkspaceName: result.WorkspaceName,
			UpdatedAt:     result.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
