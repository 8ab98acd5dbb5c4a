package orgs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

// GetOrganization fetches an organization by id.
func (r *Repository) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, status, created_at, updated_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.Status, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, shared.ErrNotFound
	}
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

// Exists reports whether the organization id identifies a real scope.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// IsActiveMember reports whether the user currently holds an active
// membership row in the organization.
func (r *Repository) IsActiveMember(ctx context.Context, orgID, userID int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM organization_members WHERE org_id = $1 AND user_id = $2 AND status = $3)`,
		orgID, userID, MemberActive).Scan(&active)
	return active, err
}

// ActiveMemberSet returns, out of the candidate user ids, those with an
// active membership in the organization. Used by the bulk member-add
// precheck so a whole batch validates with one query.
func (r *Repository) ActiveMemberSet(ctx context.Context, orgID int64, userIDs []int64) (map[int64]struct{}, error) {
	active := make(map[int64]struct{}, len(userIDs))
	if len(userIDs) == 0 {
		return active, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM organization_members WHERE org_id = $1 AND user_id = ANY($2) AND status = $3`,
		orgID, userIDs, MemberActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		active[userID] = struct{}{}
	}
	return active, rows.Err()
}
