package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

func TestCheckRightValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.CheckRight(ctx, CheckInput{UserID: 0, Right: "backoffice:dashboard"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CheckRight(ctx, CheckInput{UserID: 7, Right: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCheckRightUnknownOrg(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)

	_, err := svc.CheckRight(context.Background(), CheckInput{
		UserID: 7,
		OrgID:  int64Ptr(99),
		Right:  "backoffice:dashboard",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckRightAllowViaGlobalRole(t *testing.T) {
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, IsGlobal: true}
	repo.grants = []GrantRow{{
		ID:      "g-1",
		Subject: Subject{Type: SubjectRole, ID: 1},
		Right:   "admin_panel__users:read",
		Effect:  EffectAllow,
	}}
	svc := NewService(repo, nil, nil, nil)

	decision, err := svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "admin_panel__users:read"})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonAllowed, decision.Reason)
	require.Equal(t, LayerRole, decision.DecisionLayer)
	require.Len(t, decision.Explain, 1)
	require.Equal(t, "g-1", decision.Explain[0].GrantID)
	require.Equal(t, []int64{1}, decision.Context.RoleIDs)
	require.NotEmpty(t, decision.Context.TraceID)

	// Same role does not cover a different action.
	decision, err = svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "admin_panel__users:write"})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoMatch, decision.Reason)
	require.Empty(t, decision.Explain)
}

func TestCheckRightWildcardDenyOverridesAllow(t *testing.T) {
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, IsGlobal: true}
	repo.grants = []GrantRow{
		{ID: "g-allow", Subject: Subject{Type: SubjectRole, ID: 1}, Right: "admin_panel__users:read", Effect: EffectAllow},
		{ID: "g-deny", Subject: Subject{Type: SubjectUser, ID: 7}, Right: "admin_panel__users:*", Effect: EffectDeny},
	}
	svc := NewService(repo, nil, nil, nil)

	decision, err := svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "admin_panel__users:read"})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonDenied, decision.Reason)
	require.Equal(t, LayerUserDirect, decision.DecisionLayer)
	require.Len(t, decision.Explain, 1)
	require.Equal(t, "g-deny", decision.Explain[0].GrantID)
}

func TestCheckRightGroupGrant(t *testing.T) {
	repo := newMemoryRepo()
	repo.orgs[10] = true
	repo.userGroups[7] = []int64{100}
	repo.groups[100] = GroupRef{ID: 100, Status: StatusActive, OrgID: int64Ptr(10)}
	repo.grants = []GrantRow{{
		ID:      "g-group",
		Subject: Subject{Type: SubjectGroup, ID: 100},
		Right:   "backoffice:*",
		Effect:  EffectAllow,
	}}
	svc := NewService(repo, nil, nil, nil)

	decision, err := svc.CheckRight(context.Background(), CheckInput{
		UserID: 7,
		OrgID:  int64Ptr(10),
		Right:  "backoffice:dashboard",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, LayerGroup, decision.DecisionLayer)

	// The same membership contributes nothing to a global check.
	decision, err = svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "backoffice:dashboard"})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoMatch, decision.Reason)
}

func TestCheckRightStorageFailurePropagates(t *testing.T) {
	repo := newMemoryRepo()
	repo.failWith = errors.New("connection reset")
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "backoffice:dashboard"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
}

type reasonCounter struct {
	reasons []string
}

func (c *reasonCounter) ObserveDecision(reason string) {
	c.reasons = append(c.reasons, reason)
}

func TestCheckRightObservesOutcome(t *testing.T) {
	counter := &reasonCounter{}
	svc := NewService(newMemoryRepo(), nil, counter, nil)

	decision, err := svc.CheckRight(context.Background(), CheckInput{UserID: 7, Right: "backoffice:dashboard"})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, []string{string(ReasonNoMatch)}, counter.reasons)
}
