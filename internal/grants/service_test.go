package grants

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

type memoryRepo struct {
	grants map[uuid.UUID]Grant
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{grants: make(map[uuid.UUID]Grant)}
}

func (r *memoryRepo) CreateGrant(ctx context.Context, grant Grant) (Grant, error) {
	r.nextID++
	grant.ID = r.nextID
	r.grants[grant.PublicID] = grant
	return grant, nil
}

func (r *memoryRepo) GetGrant(ctx context.Context, publicID uuid.UUID) (Grant, error) {
	grant, ok := r.grants[publicID]
	if !ok {
		return Grant{}, fmt.Errorf("grants: grant %s: %w", publicID, shared.ErrNotFound)
	}
	return grant, nil
}

func (r *memoryRepo) DeleteGrant(ctx context.Context, publicID uuid.UUID) (Grant, error) {
	grant, ok := r.grants[publicID]
	if !ok {
		return Grant{}, fmt.Errorf("grants: grant %s: %w", publicID, shared.ErrNotFound)
	}
	delete(r.grants, publicID)
	return grant, nil
}

func (r *memoryRepo) ListGrants(ctx context.Context, subjectType SubjectType, subjectID int64) ([]Grant, error) {
	var out []Grant
	for _, grant := range r.grants {
		if grant.SubjectType == subjectType && grant.SubjectID == subjectID {
			out = append(out, grant)
		}
	}
	return out, nil
}

type stubOrgs struct {
	existing map[int64]bool
}

func (o stubOrgs) Exists(ctx context.Context, orgID int64) (bool, error) {
	return o.existing[orgID], nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, stubOrgs{existing: map[int64]bool{10: true}}, nil, nil, nil)
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateGrantValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeGlobal, Right: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectType("team"), SubjectID: 1, ScopeType: ScopeGlobal, Right: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, ScopeType: ScopeGlobal, Right: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeGlobal, Right: "x", Effect: Effect("audit")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateGrantScopeConsistency(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeGlobal, ScopeID: int64Ptr(10), Right: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeOrg, Right: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeOrg, ScopeID: int64Ptr(404), Right: "x"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	grant, err := svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeOrg, ScopeID: int64Ptr(10), Right: "x"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, grant.PublicID)
}

func TestCreateGrantDefaultsToAllow(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	grant, err := svc.CreateGrant(context.Background(), CreateGrantInput{
		SubjectType: SubjectUser,
		SubjectID:   7,
		ScopeType:   ScopeGlobal,
		Right:       "backoffice:*",
	})
	require.NoError(t, err)
	require.Equal(t, EffectAllow, grant.Effect)
}

func TestCreateGrantRecordsActor(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{Type: "user", ID: 42})

	grant, err := svc.CreateGrant(ctx, CreateGrantInput{
		SubjectType: SubjectRole,
		SubjectID:   1,
		ScopeType:   ScopeGlobal,
		Right:       "admin_panel__users:read",
	})
	require.NoError(t, err)
	require.Equal(t, "user", grant.CreatedByType)
	require.EqualValues(t, 42, grant.CreatedByID)
}

func TestDeleteGrant(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	grant, err := svc.CreateGrant(ctx, CreateGrantInput{SubjectType: SubjectRole, SubjectID: 1, ScopeType: ScopeGlobal, Right: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGrant(ctx, grant.PublicID))
	require.ErrorIs(t, svc.DeleteGrant(ctx, grant.PublicID), shared.ErrNotFound)
}

func TestListGrantsRejectsUnknownSubject(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.ListGrants(context.Background(), SubjectType("team"), 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}
