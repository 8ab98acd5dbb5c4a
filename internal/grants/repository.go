package grants

import (
	"context"
	"errors"

	"github.com/google/uuid"
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

const grantColumns = `id, public_id, subject_type, subject_id, scope_type, scope_id, "right", effect, created_by_type, created_by_id, created_at`

// CreateGrant inserts a new grant.
func (r *Repository) CreateGrant(ctx context.Context, grant Grant) (Grant, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO grants (public_id, subject_type, subject_id, scope_type, scope_id, "right", effect, created_by_type, created_by_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+grantColumns,
		grant.PublicID, grant.SubjectType, grant.SubjectID, grant.ScopeType, grant.ScopeID,
		grant.Right, grant.Effect, grant.CreatedByType, grant.CreatedByID).
		Scan(&grant.ID, &grant.PublicID, &grant.SubjectType, &grant.SubjectID, &grant.ScopeType, &grant.ScopeID,
			&grant.Right, &grant.Effect, &grant.CreatedByType, &grant.CreatedByID, &grant.CreatedAt)
	if err != nil {
		return Grant{}, err
	}
	return grant, nil
}

// GetGrant fetches a grant by public id.
func (r *Repository) GetGrant(ctx context.Context, publicID uuid.UUID) (Grant, error) {
	var grant Grant
	err := r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE public_id = $1`, publicID).
		Scan(&grant.ID, &grant.PublicID, &grant.SubjectType, &grant.SubjectID, &grant.ScopeType, &grant.ScopeID,
			&grant.Right, &grant.Effect, &grant.CreatedByType, &grant.CreatedByID, &grant.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, shared.ErrNotFound
	}
	if err != nil {
		return Grant{}, err
	}
	return grant, nil
}

// DeleteGrant removes a grant by public id and returns the deleted row for
// the audit snapshot.
func (r *Repository) DeleteGrant(ctx context.Context, publicID uuid.UUID) (Grant, error) {
	var grant Grant
	err := r.pool.QueryRow(ctx, `DELETE FROM grants WHERE public_id = $1 RETURNING `+grantColumns, publicID).
		Scan(&grant.ID, &grant.PublicID, &grant.SubjectType, &grant.SubjectID, &grant.ScopeType, &grant.ScopeID,
			&grant.Right, &grant.Effect, &grant.CreatedByType, &grant.CreatedByID, &grant.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, shared.ErrNotFound
	}
	if err != nil {
		return Grant{}, err
	}
	return grant, nil
}

// ListGrants returns grants attached to one subject ordered by id.
func (r *Repository) ListGrants(ctx context.Context, subjectType SubjectType, subjectID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE subject_type = $1 AND subject_id = $2 ORDER BY id`,
		subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var grant Grant
		if err := rows.Scan(&grant.ID, &grant.PublicID, &grant.SubjectType, &grant.SubjectID, &grant.ScopeType, &grant.ScopeID,
			&grant.Right, &grant.Effect, &grant.CreatedByType, &grant.CreatedByID, &grant.CreatedAt); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}
