package groups

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-hq/gatehouse/internal/platform/db"
	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const groupColumns = `id, name, description, status, is_global, org_id, created_at, updated_at`

// CreateGroup inserts a new group.
func (r *Repository) CreateGroup(ctx context.Context, group Group) (Group, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO groups (name, description, status, is_global, org_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+groupColumns,
		group.Name, group.Description, group.Status, group.IsGlobal, group.OrgID).
		Scan(&group.ID, &group.Name, &group.Description, &group.Status, &group.IsGlobal, &group.OrgID, &group.CreatedAt, &group.UpdatedAt)
	if isUniqueViolation(err) {
		return Group{}, shared.ErrDuplicate
	}
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

// GetGroup fetches a group by id.
func (r *Repository) GetGroup(ctx context.Context, id int64) (Group, error) {
	var group Group
	err := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id).
		Scan(&group.ID, &group.Name, &group.Description, &group.Status, &group.IsGlobal, &group.OrgID, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, shared.ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

// UpdateGroup persists mutable group fields.
func (r *Repository) UpdateGroup(ctx context.Context, group Group) (Group, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE groups SET name = $2, description = $3, status = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+groupColumns,
		group.ID, group.Name, group.Description, group.Status).
		Scan(&group.ID, &group.Name, &group.Description, &group.Status, &group.IsGlobal, &group.OrgID, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, shared.ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

// ListGroups returns all groups, or only global plus one org's groups when
// orgID is set.
func (r *Repository) ListGroups(ctx context.Context, orgID *int64) ([]Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups ORDER BY id`
	args := []any{}
	if orgID != nil {
		query = `SELECT ` + groupColumns + ` FROM groups WHERE is_global OR org_id = $1 ORDER BY id`
		args = append(args, *orgID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var group Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.Status, &group.IsGlobal, &group.OrgID, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// RoleScope loads the scope fields of a role for the link invariant.
func (r *Repository) RoleScope(ctx context.Context, roleID int64) (RoleScope, error) {
	var scope RoleScope
	err := r.pool.QueryRow(ctx, `SELECT id, is_global, org_id FROM roles WHERE id = $1`, roleID).
		Scan(&scope.ID, &scope.IsGlobal, &scope.OrgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoleScope{}, shared.ErrNotFound
	}
	if err != nil {
		return RoleScope{}, err
	}
	return scope, nil
}

// LinkRole inserts a group-role link, unique per (group, role).
func (r *Repository) LinkRole(ctx context.Context, groupID, roleID int64) (GroupRoleLink, error) {
	var link GroupRoleLink
	err := r.pool.QueryRow(ctx,
		`INSERT INTO group_roles (group_id, role_id) VALUES ($1, $2)
		 RETURNING id, group_id, role_id, created_at`,
		groupID, roleID).
		Scan(&link.ID, &link.GroupID, &link.RoleID, &link.CreatedAt)
	if isUniqueViolation(err) {
		return GroupRoleLink{}, shared.ErrDuplicate
	}
	if err != nil {
		return GroupRoleLink{}, err
	}
	return link, nil
}

// UnlinkRole deletes a group-role link.
func (r *Repository) UnlinkRole(ctx context.Context, groupID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM group_roles WHERE group_id = $1 AND role_id = $2`, groupID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddMember inserts a group-member link, unique per (group, user).
func (r *Repository) AddMember(ctx context.Context, groupID, userID int64) (GroupMemberLink, error) {
	var link GroupMemberLink
	err := r.pool.QueryRow(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
		 RETURNING id, group_id, user_id, created_at`,
		groupID, userID).
		Scan(&link.ID, &link.GroupID, &link.UserID, &link.CreatedAt)
	if isUniqueViolation(err) {
		return GroupMemberLink{}, shared.ErrDuplicate
	}
	if err != nil {
		return GroupMemberLink{}, err
	}
	return link, nil
}

// AddMembers inserts many member links in one transaction. Rows that
// already exist are skipped rather than failing the batch, so concurrent
// writers can race on individual links safely; the returned count covers
// only newly created rows.
func (r *Repository) AddMembers(ctx context.Context, groupID int64, userIDs []int64) (int64, error) {
	var inserted int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, userID := range userIDs {
			tag, err := tx.Exec(ctx,
				`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
				 ON CONFLICT (group_id, user_id) DO NOTHING`,
				groupID, userID)
			if err != nil {
				return err
			}
			inserted += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// RemoveMember deletes a group-member link.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns the member links of a group ordered by user id.
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]GroupMemberLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, user_id, created_at FROM group_members WHERE group_id = $1 ORDER BY user_id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []GroupMemberLink
	for rows.Next() {
		var link GroupMemberLink
		if err := rows.Scan(&link.ID, &link.GroupID, &link.UserID, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
