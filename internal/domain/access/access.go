// Package access holds the pure authorization core: the ordered role scale
// and the action decision table. It never touches the store; callers resolve
// the actor's role for the owning workspace and ask for a verdict.
package access

import "errors"

var (
	// ErrForbidden is the deny verdict surfaced by callers when the actor
	// is a member but the role floor for the action is not met.
	ErrForbidden = errors.New("forbidden")

	// ErrNoMembership is the deny verdict for an actor with no membership
	// row at all. Transport maps it to the same not-found response as a
	// missing resource so reads of specific ids never leak existence.
	ErrNoMembership = errors.New("no workspace membership")
)

// Role is a workspace privilege level. The zero value RoleNone means the
// actor has no membership row and therefore no access at all.
type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "VIEWER"
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
	RoleOwner  Role = "OWNER"
)

// Rank maps a role onto the total order OWNER > ADMIN > MEMBER > VIEWER.
// Unknown values rank alongside RoleNone so a corrupted row can never
// grant access.
func (r Role) Rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleMember:
		return 2
	case RoleAdmin:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r grants at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// Action is a resource operation class requiring a minimum role.
type Action string

const (
	// ActionRead covers reading a workspace and listing/searching its
	// groups and files.
	ActionRead Action = "read"
	// ActionWrite covers creating groups and files, updating file name or
	// content, renaming/reparenting groups, and restoring checkpoints
	// (a restore is itself a content mutation).
	ActionWrite Action = "write"
	// ActionDelete covers soft-deleting files and hard-deleting groups.
	ActionDelete Action = "delete"
	// ActionManageMembers covers workspace name/description updates and
	// membership changes below OWNER.
	ActionManageMembers Action = "manage_members"
	// ActionOwn covers deleting the workspace and assigning or revoking
	// the OWNER role.
	ActionOwn Action = "own"
)

// MinRole returns the minimum role required for an action, or RoleNone for
// an unknown action (which no role satisfies).
func MinRole(action Action) Role {
	switch action {
	case ActionRead:
		return RoleViewer
	case ActionWrite:
		return RoleMember
	case ActionDelete, ActionManageMembers:
		return RoleAdmin
	case ActionOwn:
		return RoleOwner
	default:
		return RoleNone
	}
}

// Allowed is the access decision function. It is deterministic and free of
// side effects: the same role and action always yield the same verdict.
func Allowed(role Role, action Action) bool {
	min := MinRole(action)
	if !role.Valid() || !min.Valid() {
		return false
	}
	return role.Rank() >= min.Rank()
}
