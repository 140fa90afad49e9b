package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

const grantColumns = `id, pool_id, company_id, access_level, granted_by, granted_at, updated_at, expires_at, notes`

// AccessGrantRepository persists company access grants.
type AccessGrantRepository struct {
	db *sqlx.DB
}

// NewAccessGrantRepository constructs the repository.
func NewAccessGrantRepository(db *sqlx.DB) *AccessGrantRepository {
	return &AccessGrantRepository{db: db}
}

func (r *AccessGrantRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert creates the grant or updates the existing (pool, company) row in place.
func (r *AccessGrantRepository) Upsert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO pool_access_grants (` + grantColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)
ON CONFLICT (pool_id, company_id)
DO UPDATE SET access_level = EXCLUDED.access_level, granted_by = EXCLUDED.granted_by,
              expires_at = EXCLUDED.expires_at, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
RETURNING ` + grantColumns
	var stored models.AccessGrant
	if err := r.db.GetContext(ctx, &stored, query,
		grant.ID, grant.PoolID, grant.CompanyID, grant.AccessLevel, grant.GrantedBy, now, grant.ExpiresAt, grant.Notes,
	); err != nil {
		return nil, fmt.Errorf("upsert access grant: %w", err)
	}
	return &stored, nil
}

// FindByID loads a grant.
func (r *AccessGrantRepository) FindByID(ctx context.Context, id string) (*models.AccessGrant, error) {
	const query = `SELECT ` + grantColumns + ` FROM pool_access_grants WHERE id = $1`
	var grant models.AccessGrant
	if err := r.db.GetContext(ctx, &grant, query, id); err != nil {
		return nil, err
	}
	return &grant, nil
}

// FindByPoolAndCompany loads the grant a company holds on a pool. A non-nil exec
// runs the lookup on the caller's transaction.
func (r *AccessGrantRepository) FindByPoolAndCompany(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string) (*models.AccessGrant, error) {
	const query = `SELECT ` + grantColumns + ` FROM pool_access_grants WHERE pool_id = $1 AND company_id = $2`
	var grant models.AccessGrant
	if err := sqlx.GetContext(ctx, r.exec(exec), &grant, query, poolID, companyID); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Update overwrites level, expiry and notes and returns the stored row.
func (r *AccessGrantRepository) Update(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	const query = `UPDATE pool_access_grants SET access_level = $1, expires_at = $2, notes = $3, updated_at = $4
WHERE id = $5 RETURNING ` + grantColumns
	var stored models.AccessGrant
	if err := r.db.GetContext(ctx, &stored, query, grant.AccessLevel, grant.ExpiresAt, grant.Notes, time.Now().UTC(), grant.ID); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete removes a grant and returns what was removed.
func (r *AccessGrantRepository) Delete(ctx context.Context, id string) (*models.AccessGrant, error) {
	const query = `DELETE FROM pool_access_grants WHERE id = $1 RETURNING ` + grantColumns
	var removed models.AccessGrant
	if err := r.db.GetContext(ctx, &removed, query, id); err != nil {
		return nil, err
	}
	return &removed, nil
}

// ListByPool returns all grants on a pool, expired ones included.
func (r *AccessGrantRepository) ListByPool(ctx context.Context, poolID string) ([]models.AccessGrant, error) {
	const query = `SELECT ` + grantColumns + ` FROM pool_access_grants WHERE pool_id = $1 ORDER BY granted_at DESC`
	var grants []models.AccessGrant
	if err := r.db.SelectContext(ctx, &grants, query, poolID); err != nil {
		return nil, fmt.Errorf("list pool grants: %w", err)
	}
	return grants, nil
}

// ListActiveByCompany returns unexpired grants held by a company.
func (r *AccessGrantRepository) ListActiveByCompany(ctx context.Context, companyID string, now time.Time) ([]models.AccessGrantDetail, error) {
	const query = `
SELECT g.id, g.pool_id, g.company_id, g.access_level, g.granted_by, g.granted_at, g.updated_at, g.expires_at, g.notes,
       p.name AS pool_name, p.pool_type AS pool_type, p.status AS pool_status
FROM pool_access_grants g
JOIN pools p ON p.id = g.pool_id
WHERE g.company_id = $1 AND (g.expires_at IS NULL OR g.expires_at >= $2)
ORDER BY p.name ASC`
	var grants []models.AccessGrantDetail
	if err := r.db.SelectContext(ctx, &grants, query, companyID, now); err != nil {
		return nil, fmt.Errorf("list company grants: %w", err)
	}
	return grants, nil
}

// DeleteExpiredBefore removes grants whose expiry is older than cutoff.
func (r *AccessGrantRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM pool_access_grants WHERE expires_at IS NOT NULL AND expires_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired grants: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired grant rows affected: %w", err)
	}
	return affected, nil
}
