// Package groups manages groups, their role links and their member rolls.
// Group and role scopes must stay consistent: a group can never hand out a
// role belonging to a different organization than its own.
package groups

import (
	"fmt"
	"time"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// Status of a group. A disabled group silently removes every right its
// role links would have granted.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Group represents a named collection of users sharing role assignments.
// Same global/org exclusivity as a role.
type Group struct {
	ID          int64
	Name        string
	Description string
	Status      Status
	IsGlobal    bool
	OrgID       *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupRoleLink links a role to a group, unique per (group, role).
type GroupRoleLink struct {
	ID        int64
	GroupID   int64
	RoleID    int64
	CreatedAt time.Time
}

// GroupMemberLink links a user to a group, unique per (group, user).
type GroupMemberLink struct {
	ID        int64
	GroupID   int64
	UserID    int64
	CreatedAt time.Time
}

// RoleScope is the subset of a role the link invariants need.
type RoleScope struct {
	ID       int64
	IsGlobal bool
	OrgID    *int64
}

// BulkAddResult reports the outcome of a bulk member addition. Inserted
// counts only newly created rows; links that already existed are counted
// as duplicates, never as failures.
type BulkAddResult struct {
	RequestedCount int   `json:"requestedCount"`
	InsertedCount  int64 `json:"insertedCount"`
}

// InactiveMembersError rejects a whole member-add batch: every listed user
// lacks an active membership in the group's organization. No rows were
// written.
type InactiveMembersError struct {
	OrgID   int64
	UserIDs []int64
}

func (e *InactiveMembersError) Error() string {
	return fmt.Sprintf("groups: users %v are not active members of org %d", e.UserIDs, e.OrgID)
}

// Unwrap ties the error into the VALIDATION taxonomy.
func (e *InactiveMembersError) Unwrap() error {
	return shared.ErrValidation
}
