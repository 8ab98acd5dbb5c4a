// Package orgs provides read access to organizations and their membership
// rolls. The RBAC write paths consult it to answer one question: is a user
// an active member of an organization right now.
package orgs

import "time"

// MemberStatus values for organization membership rows.
const (
	MemberActive  = "active"
	MemberInvited = "invited"
	MemberRemoved = "removed"
)

// Organization represents an organizational scope.
type Organization struct {
	ID        int64
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member links a user to an organization with a membership status.
type Member struct {
	OrgID     int64
	UserID    int64
	Status    string
	CreatedAt time.Time
}
