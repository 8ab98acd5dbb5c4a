package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const roleColumns = `id, key, name, description, status, is_global, org_id, created_at, updated_at`

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (key, name, description, status, is_global, org_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+roleColumns,
		role.Key, role.Name, role.Description, role.Status, role.IsGlobal, role.OrgID).
		Scan(&role.ID, &role.Key, &role.Name, &role.Description, &role.Status, &role.IsGlobal, &role.OrgID, &role.CreatedAt, &role.UpdatedAt)
	if isUniqueViolation(err) {
		return Role{}, shared.ErrDuplicate
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Key, &role.Name, &role.Description, &role.Status, &role.IsGlobal, &role.OrgID, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole persists mutable role fields.
func (r *Repository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, status = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, role.Status).
		Scan(&role.ID, &role.Key, &role.Name, &role.Description, &role.Status, &role.IsGlobal, &role.OrgID, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles, or only global plus one org's roles when
// orgID is set.
func (r *Repository) ListRoles(ctx context.Context, orgID *int64) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY id`
	args := []any{}
	if orgID != nil {
		query = `SELECT ` + roleColumns + ` FROM roles WHERE is_global OR org_id = $1 ORDER BY id`
		args = append(args, *orgID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Key, &role.Name, &role.Description, &role.Status, &role.IsGlobal, &role.OrgID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AssignUserRole inserts a user-role link, unique per (user, role).
func (r *Repository) AssignUserRole(ctx context.Context, userID, roleID int64) (UserRoleLink, error) {
	var link UserRoleLink
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		 RETURNING id, user_id, role_id, created_at`,
		userID, roleID).
		Scan(&link.ID, &link.UserID, &link.RoleID, &link.CreatedAt)
	if isUniqueViolation(err) {
		return UserRoleLink{}, shared.ErrDuplicate
	}
	if err != nil {
		return UserRoleLink{}, err
	}
	return link, nil
}

// RemoveUserRole deletes a user-role link. Returns ErrNotFound if nothing
// was deleted.
func (r *Repository) RemoveUserRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
