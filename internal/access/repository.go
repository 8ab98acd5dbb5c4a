package access

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reads for the decision path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UserRoleIDs returns role ids assigned directly to the user.
func (r *Repository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
}

// UserGroupIDs returns ids of groups the user belongs to.
func (r *Repository) UserGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT group_id FROM group_members WHERE user_id = $1`, userID)
}

// GroupRoleIDs returns the union of role ids linked to the given groups.
func (r *Repository) GroupRoleIDs(ctx context.Context, groupIDs []int64) ([]int64, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return r.queryIDs(ctx, `SELECT DISTINCT role_id FROM group_roles WHERE group_id = ANY($1)`, groupIDs)
}

// RolesByIDs loads role rows for the candidate ids.
func (r *Repository) RolesByIDs(ctx context.Context, ids []int64) ([]RoleRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, status, is_global, org_id FROM roles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []RoleRef
	for rows.Next() {
		var ref RoleRef
		if err := rows.Scan(&ref.ID, &ref.Status, &ref.IsGlobal, &ref.OrgID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GroupsByIDs loads group rows for the candidate ids.
func (r *Repository) GroupsByIDs(ctx context.Context, ids []int64) ([]GroupRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, status, is_global, org_id FROM groups WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []GroupRef
	for rows.Next() {
		var ref GroupRef
		if err := rows.Scan(&ref.ID, &ref.Status, &ref.IsGlobal, &ref.OrgID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GrantsForSubjects loads every grant attached to the eligible subjects.
// Global grants always apply; org-scoped grants only when the decision
// tests that exact organization.
func (r *Repository) GrantsForSubjects(ctx context.Context, subjects []Subject, orgID *int64) ([]GrantRow, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	var roleIDs, userIDs, groupIDs []int64
	for _, subject := range subjects {
		switch subject.Type {
		case SubjectRole:
			roleIDs = append(roleIDs, subject.ID)
		case SubjectUser:
			userIDs = append(userIDs, subject.ID)
		case SubjectGroup:
			groupIDs = append(groupIDs, subject.ID)
		}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT public_id, subject_type, subject_id, "right", effect
		FROM grants
		WHERE ((subject_type = 'role' AND subject_id = ANY($1))
			OR (subject_type = 'user' AND subject_id = ANY($2))
			OR (subject_type = 'group' AND subject_id = ANY($3)))
		  AND (scope_type = 'global' OR (scope_type = 'org' AND scope_id = $4))`,
		roleIDs, userIDs, groupIDs, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []GrantRow
	for rows.Next() {
		var grant GrantRow
		var subjectType string
		if err := rows.Scan(&grant.ID, &subjectType, &grant.Subject.ID, &grant.Right, &grant.Effect); err != nil {
			return nil, err
		}
		grant.Subject.Type = SubjectType(subjectType)
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// OrgExists reports whether the organization id identifies a real scope.
func (r *Repository) OrgExists(ctx context.Context, orgID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, orgID).Scan(&exists)
	return exists, err
}

func (r *Repository) queryIDs(ctx context.Context, query string, arg any) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
