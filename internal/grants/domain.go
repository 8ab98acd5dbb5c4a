// Package grants manages grant rows, the only entities carrying an effect.
// A grant attaches a right pattern with allow or deny to a subject (role,
// user or group) within a global or single-organization scope.
package grants

import (
	"time"

	"github.com/google/uuid"
)

// SubjectType identifies what kind of entity a grant is attached to.
type SubjectType string

const (
	SubjectRole  SubjectType = "role"
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// ScopeType qualifies where a grant applies.
type ScopeType string

const (
	ScopeGlobal ScopeType = "global"
	ScopeOrg    ScopeType = "org"
)

// Effect carried by a grant.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Grant is a persisted grant row. Right is a pattern and may contain `*`
// wildcards; it is matched against required rights at decision time and is
// never validated against the advisory rights catalog.
type Grant struct {
	ID            int64
	PublicID      uuid.UUID
	SubjectType   SubjectType
	SubjectID     int64
	ScopeType     ScopeType
	ScopeID       *int64
	Right         string
	Effect        Effect
	CreatedByType string
	CreatedByID   int64
	CreatedAt     time.Time
}
