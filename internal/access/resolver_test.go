package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	userRoles  map[int64][]int64
	userGroups map[int64][]int64
	groupRoles map[int64][]int64
	roles      map[int64]RoleRef
	groups     map[int64]GroupRef
	grants     []GrantRow
	orgs       map[int64]bool
	failWith   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		userRoles:  make(map[int64][]int64),
		userGroups: make(map[int64][]int64),
		groupRoles: make(map[int64][]int64),
		roles:      make(map[int64]RoleRef),
		groups:     make(map[int64]GroupRef),
		orgs:       make(map[int64]bool),
	}
}

func (r *memoryRepo) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.userRoles[userID], nil
}

func (r *memoryRepo) UserGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.userGroups[userID], nil
}

func (r *memoryRepo) GroupRoleIDs(ctx context.Context, groupIDs []int64) ([]int64, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []int64
	for _, id := range groupIDs {
		out = append(out, r.groupRoles[id]...)
	}
	return out, nil
}

func (r *memoryRepo) RolesByIDs(ctx context.Context, ids []int64) ([]RoleRef, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []RoleRef
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRepo) GroupsByIDs(ctx context.Context, ids []int64) ([]GroupRef, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []GroupRef
	for _, id := range ids {
		if group, ok := r.groups[id]; ok {
			out = append(out, group)
		}
	}
	return out, nil
}

func (r *memoryRepo) GrantsForSubjects(ctx context.Context, subjects []Subject, orgID *int64) ([]GrantRow, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	eligible := make(map[Subject]bool, len(subjects))
	for _, s := range subjects {
		eligible[s] = true
	}
	var out []GrantRow
	for _, g := range r.grants {
		if eligible[g.Subject] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *memoryRepo) OrgExists(ctx context.Context, orgID int64) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	return r.orgs[orgID], nil
}

func int64Ptr(v int64) *int64 { return &v }

func subjectsOf(res Resolution) []Subject {
	out := make([]Subject, len(res.Subjects))
	for i, es := range res.Subjects {
		out[i] = es.Subject
	}
	return out
}

func TestResolveUserWithNothingStillHasUserSubject(t *testing.T) {
	repo := newMemoryRepo()
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Equal(t, []Subject{{Type: SubjectUser, ID: 7}}, subjectsOf(res))
	require.Empty(t, res.RoleIDs)
	require.Empty(t, res.GroupIDs)
}

func TestResolveDirectGlobalRole(t *testing.T) {
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, IsGlobal: true}
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, res.RoleIDs)
	require.Equal(t, EligibleSubject{Subject: Subject{Type: SubjectRole, ID: 1}, Layer: LayerRole}, res.Subjects[0])
}

func TestResolveDisabledRoleContributesNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1}
	repo.roles[1] = RoleRef{ID: 1, Status: "disabled", IsGlobal: true}
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, res.RoleIDs)
}

func TestResolveOrgRoleFiltering(t *testing.T) {
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1, 2}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, OrgID: int64Ptr(10)}
	repo.roles[2] = RoleRef{ID: 2, Status: StatusActive, OrgID: int64Ptr(20)}
	resolver := NewResolver(repo)

	// Global check sees no org-scoped roles.
	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, res.RoleIDs)

	// Org 10 check sees exactly the org 10 role.
	res, err = resolver.Resolve(context.Background(), 7, int64Ptr(10))
	require.NoError(t, err)
	require.Equal(t, []int64{1}, res.RoleIDs)
}

func TestResolveGroupRolesThroughActiveGroupOnly(t *testing.T) {
	repo := newMemoryRepo()
	repo.userGroups[7] = []int64{100, 200}
	repo.groups[100] = GroupRef{ID: 100, Status: StatusActive, IsGlobal: true}
	repo.groups[200] = GroupRef{ID: 200, Status: "disabled", IsGlobal: true}
	repo.groupRoles[100] = []int64{1}
	repo.groupRoles[200] = []int64{2}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, IsGlobal: true}
	repo.roles[2] = RoleRef{ID: 2, Status: StatusActive, IsGlobal: true}
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, res.RoleIDs)
	require.Equal(t, []int64{100}, res.GroupIDs)

	layers := make(map[Subject]Layer)
	for _, es := range res.Subjects {
		layers[es.Subject] = es.Layer
	}
	require.Equal(t, LayerGroupRole, layers[Subject{Type: SubjectRole, ID: 1}])
	require.Equal(t, LayerGroup, layers[Subject{Type: SubjectGroup, ID: 100}])
}

func TestResolveDirectAssignmentWinsLayerAttribution(t *testing.T) {
	// A role held both directly and via a group resolves once, as direct.
	repo := newMemoryRepo()
	repo.userRoles[7] = []int64{1}
	repo.userGroups[7] = []int64{100}
	repo.groups[100] = GroupRef{ID: 100, Status: StatusActive, IsGlobal: true}
	repo.groupRoles[100] = []int64{1}
	repo.roles[1] = RoleRef{ID: 1, Status: StatusActive, IsGlobal: true}
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, res.RoleIDs)
	require.Equal(t, LayerRole, res.Subjects[0].Layer)
}

func TestResolveOrgScopedGroupExcludedFromGlobalCheck(t *testing.T) {
	repo := newMemoryRepo()
	repo.userGroups[7] = []int64{100}
	repo.groups[100] = GroupRef{ID: 100, Status: StatusActive, OrgID: int64Ptr(10)}
	resolver := NewResolver(repo)

	res, err := resolver.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, res.GroupIDs)

	res, err = resolver.Resolve(context.Background(), 7, int64Ptr(10))
	require.NoError(t, err)
	require.Equal(t, []int64{100}, res.GroupIDs)
}
