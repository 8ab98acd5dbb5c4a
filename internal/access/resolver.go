package access

import (
	"context"
	"sort"
)

// Resolver computes, for a user and an optional organization scope, the
// closed set of grant subjects applicable to one decision. It performs
// reads only; a user with no roles and no memberships resolves to the
// user subject alone.
type Resolver struct {
	repo RepositoryPort
}

// NewResolver constructs a Resolver.
func NewResolver(repo RepositoryPort) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve walks direct role assignments and group memberships, drops
// disabled roles and groups, applies the scope filter for the decision
// scope under test, and returns the eligible subjects. A nil orgID means a
// purely global check, which only considers global roles and groups.
func (r *Resolver) Resolve(ctx context.Context, userID int64, orgID *int64) (Resolution, error) {
	directRoleIDs, err := r.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}
	memberGroupIDs, err := r.repo.UserGroupIDs(ctx, userID)
	if err != nil {
		return Resolution{}, err
	}

	groups, err := r.repo.GroupsByIDs(ctx, memberGroupIDs)
	if err != nil {
		return Resolution{}, err
	}
	activeGroupIDs := make([]int64, 0, len(groups))
	scopedGroupIDs := make([]int64, 0, len(groups))
	for _, g := range groups {
		if g.Status != StatusActive {
			continue
		}
		activeGroupIDs = append(activeGroupIDs, g.ID)
		if inScope(g.IsGlobal, g.OrgID, orgID) {
			scopedGroupIDs = append(scopedGroupIDs, g.ID)
		}
	}

	// Roles reached through a disabled group contribute nothing unless the
	// user also holds them directly or via another active group.
	groupRoleIDs, err := r.repo.GroupRoleIDs(ctx, activeGroupIDs)
	if err != nil {
		return Resolution{}, err
	}

	direct := make(map[int64]struct{}, len(directRoleIDs))
	for _, id := range directRoleIDs {
		direct[id] = struct{}{}
	}
	candidates := make(map[int64]struct{}, len(directRoleIDs)+len(groupRoleIDs))
	for _, id := range directRoleIDs {
		candidates[id] = struct{}{}
	}
	for _, id := range groupRoleIDs {
		candidates[id] = struct{}{}
	}

	candidateIDs := make([]int64, 0, len(candidates))
	for id := range candidates {
		candidateIDs = append(candidateIDs, id)
	}
	roles, err := r.repo.RolesByIDs(ctx, candidateIDs)
	if err != nil {
		return Resolution{}, err
	}

	roleIDs := make([]int64, 0, len(roles))
	roleLayers := make(map[int64]Layer, len(roles))
	for _, role := range roles {
		if role.Status != StatusActive {
			continue
		}
		if !inScope(role.IsGlobal, role.OrgID, orgID) {
			continue
		}
		roleIDs = append(roleIDs, role.ID)
		if _, ok := direct[role.ID]; ok {
			roleLayers[role.ID] = LayerRole
		} else {
			roleLayers[role.ID] = LayerGroupRole
		}
	}

	sort.Slice(roleIDs, func(i, j int) bool { return roleIDs[i] < roleIDs[j] })
	sort.Slice(scopedGroupIDs, func(i, j int) bool { return scopedGroupIDs[i] < scopedGroupIDs[j] })

	subjects := make([]EligibleSubject, 0, len(roleIDs)+len(scopedGroupIDs)+1)
	for _, id := range roleIDs {
		subjects = append(subjects, EligibleSubject{
			Subject: Subject{Type: SubjectRole, ID: id},
			Layer:   roleLayers[id],
		})
	}
	subjects = append(subjects, EligibleSubject{
		Subject: Subject{Type: SubjectUser, ID: userID},
		Layer:   LayerUserDirect,
	})
	for _, id := range scopedGroupIDs {
		subjects = append(subjects, EligibleSubject{
			Subject: Subject{Type: SubjectGroup, ID: id},
			Layer:   LayerGroup,
		})
	}

	return Resolution{Subjects: subjects, RoleIDs: roleIDs, GroupIDs: scopedGroupIDs}, nil
}

// inScope reports whether a global/org-scoped entity contributes to a
// decision scoped to orgID. Global entities always contribute; org-scoped
// entities only when the decision tests exactly their organization.
func inScope(isGlobal bool, entityOrgID, decisionOrgID *int64) bool {
	if isGlobal {
		return true
	}
	if decisionOrgID == nil || entityOrgID == nil {
		return false
	}
	return *entityOrgID == *decisionOrgID
}
