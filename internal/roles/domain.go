// Package roles manages role definitions and direct user-role assignments.
package roles

import "time"

// Status of a role. A disabled role silently stops contributing rights;
// it is not an error condition on the decision path.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Role is a named bundle of grants, either global or scoped to exactly one
// organization. IsGlobal and OrgID are mutually exclusive: a global role
// carries no org id, an org-scoped role always does.
type Role struct {
	ID          int64
	Key         string
	Name        string
	Description string
	Status      Status
	IsGlobal    bool
	OrgID       *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserRoleLink assigns a role directly to a user, unique per (user, role).
type UserRoleLink struct {
	ID        int64
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
