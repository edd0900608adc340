package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"whiteboard-app-go/internal/domain/access"
	filedomain "whiteboard-app-go/internal/domain/file"
	groupdomain "whiteboard-app-go/internal/domain/group"
	userdomain "whiteboard-app-go/internal/domain/user"
	workspacedomain "whiteboard-app-go/internal/domain/workspace"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errMapping struct {
	sentinel error
	status   int
	code     string
	message  string
}

// Missing membership deliberately maps to 404: a non-member learns nothing
// about whether the resource exists.
var errMappings = []errMapping{
	{access.ErrNoMembership, http.StatusNotFound, "not_found", "not found"},
	{access.ErrForbidden, http.StatusForbidden, "forbidden", "insufficient role"},

	{userdomain.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
	{userdomain.ErrEmailTaken, http.StatusConflict, "email_taken", "email already registered"},

	{workspacedomain.ErrWorkspaceNotFound, http.StatusNotFound, "workspace_not_found", "workspace not found"},
	{workspacedomain.ErrMemberNotFound, http.StatusNotFound, "member_not_found", "member not found"},
	{workspacedomain.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
	{workspacedomain.ErrNameRequired, http.StatusBadRequest, "invalid_name", "name must not be empty"},
	{workspacedomain.ErrSlugTaken, http.StatusConflict, "slug_conflict", "workspace slug conflict"},
	{workspacedomain.ErrSlugExhausted, http.StatusConflict, "slug_conflict", "workspace slug conflict"},
	{workspacedomain.ErrLastOwner, http.StatusConflict, "last_owner", "workspace must keep at least one owner"},
	{workspacedomain.ErrInvalidRole, http.StatusBadRequest, "invalid_role", "invalid role"},

	{groupdomain.ErrGroupNotFound, http.StatusNotFound, "group_not_found", "group not found"},
	{groupdomain.ErrNameRequired, http.StatusBadRequest, "invalid_name", "name must not be empty"},
	{groupdomain.ErrParentNotFound, http.StatusBadRequest, "invalid_parent", "parent group not found"},
	{groupdomain.ErrParentWorkspaceMismatch, http.StatusBadRequest, "invalid_parent", "parent group belongs to another workspace"},
	{groupdomain.ErrParentCycle, http.StatusBadRequest, "invalid_parent", "group cannot be nested under its own descendant"},

	{filedomain.ErrFileNotFound, http.StatusNotFound, "file_not_found", "file not found"},
	{filedomain.ErrNameRequired, http.StatusBadRequest, "invalid_name", "name must not be empty"},
	{filedomain.ErrCheckpointNotFound, http.StatusNotFound, "checkpoint_not_found", "checkpoint not found"},
	{filedomain.ErrGroupMismatch, http.StatusBadRequest, "invalid_group", "target group belongs to another workspace"},
}

// respondError translates a service error into the wire envelope. Domain
// sentinels log as business errors; anything unmapped is an internal error
// with a generic message.
func (h *Handlers) respondError(w http.ResponseWriter, op string, err error, args ...any) {
	for _, m := range errMappings {
		if errors.Is(err, m.sentinel) {
			h.log.BusinessError(op, err, args...)
			writeError(w, m.status, m.code, m.message)
			return
		}
	}
	h.log.InternalError(op, err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
