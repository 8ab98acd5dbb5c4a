// Package access implements the role/group/grant based decision engine.
// It answers a single question: may this user perform this right, either
// globally or within one organization.
package access

import "time"

// Scope qualifies where a grant or check applies.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeOrg    Scope = "org"
)

// Effect is the outcome carried by a grant.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// SubjectType identifies what kind of entity a grant is attached to.
type SubjectType string

const (
	SubjectRole  SubjectType = "role"
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// Subject is a (type, id) pair eligible to carry grants.
type Subject struct {
	Type SubjectType
	ID   int64
}

// Layer names the resolution path that surfaced a subject, kept on every
// matched grant for audit and debugging.
type Layer string

const (
	LayerRole       Layer = "role"
	LayerGroupRole  Layer = "group-role"
	LayerUserDirect Layer = "user-direct"
	LayerGroup      Layer = "group"
)

// Reason explains a decision outcome.
type Reason string

const (
	ReasonAllowed      Reason = "allowed"
	ReasonDenied       Reason = "denied"
	ReasonNoMatch      Reason = "no_match"
	ReasonInvalidRight Reason = "invalid_required_right"
)

// RoleRef is the engine's read model of a role row.
type RoleRef struct {
	ID       int64
	Status   string
	IsGlobal bool
	OrgID    *int64
}

// GroupRef is the engine's read model of a group row.
type GroupRef struct {
	ID       int64
	Status   string
	IsGlobal bool
	OrgID    *int64
}

// StatusActive marks an enabled role or group; anything else contributes
// nothing to a decision.
const StatusActive = "active"

// GrantRow is a persisted grant as seen by the decision path.
type GrantRow struct {
	ID      string
	Subject Subject
	Right   string
	Effect  Effect
}

// EligibleSubject pairs a grant subject with the layer that produced it.
type EligibleSubject struct {
	Subject Subject
	Layer   Layer
}

// Resolution is the closed set of subjects applicable to one decision.
type Resolution struct {
	Subjects []EligibleSubject
	RoleIDs  []int64
	GroupIDs []int64
}

// MatchedGrant is one grant that matched the required right.
type MatchedGrant struct {
	GrantID string  `json:"grantId"`
	Subject Subject `json:"subject"`
	Layer   Layer   `json:"layer"`
	Right   string  `json:"right"`
	Effect  Effect  `json:"effect"`
}

// DecisionContext records the resolved inputs of a decision.
type DecisionContext struct {
	UserID      int64     `json:"userId"`
	OrgID       *int64    `json:"orgId,omitempty"`
	Right       string    `json:"right"`
	RoleIDs     []int64   `json:"roleIds"`
	GroupIDs    []int64   `json:"groupIds"`
	TraceID     string    `json:"traceId"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Decision is the outcome of a CheckRight call. Denial is a normal value,
// never an error.
type Decision struct {
	Allowed       bool            `json:"allowed"`
	Reason        Reason          `json:"reason"`
	DecisionLayer Layer           `json:"decisionLayer,omitempty"`
	Explain       []MatchedGrant  `json:"explain,omitempty"`
	Context       DecisionContext `json:"context"`
}
