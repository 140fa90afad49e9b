package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

const poolColumns = `id, name, description, pool_type, status, max_candidates, visibility, tags, created_by, created_at, updated_at`

// PoolRepository persists pools.
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository constructs the repository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new pool.
func (r *PoolRepository) Create(ctx context.Context, exec sqlx.ExtContext, pool *models.Pool) error {
	if pool.ID == "" {
		pool.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pool.CreatedAt.IsZero() {
		pool.CreatedAt = now
	}
	pool.UpdatedAt = now
	if pool.Tags == nil {
		pool.Tags = []string{}
	}
	const query = `INSERT INTO pools (` + poolColumns + `)
VALUES (:id, :name, :description, :pool_type, :status, :max_candidates, :visibility, :tags, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, pool); err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	return nil
}

// FindByID loads a pool without locking it.
func (r *PoolRepository) FindByID(ctx context.Context, id string) (*models.Pool, error) {
	const query = `SELECT ` + poolColumns + ` FROM pools WHERE id = $1`
	var pool models.Pool
	if err := r.db.GetContext(ctx, &pool, query, id); err != nil {
		return nil, err
	}
	return &pool, nil
}

// LockByID loads a pool holding a row lock until the surrounding transaction ends.
// Every writer that depends on the live assignment count goes through this lock.
func (r *PoolRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Pool, error) {
	const query = `SELECT ` + poolColumns + ` FROM pools WHERE id = $1 FOR UPDATE`
	var pool models.Pool
	if err := sqlx.GetContext(ctx, r.exec(exec), &pool, query, id); err != nil {
		return nil, err
	}
	return &pool, nil
}

// MainExists reports whether a main pool other than excludeID exists.
func (r *PoolRepository) MainExists(ctx context.Context, exec sqlx.ExtContext, excludeID string) (bool, error) {
	const query = `SELECT 1 FROM pools WHERE pool_type = 'main' AND id::text <> $1 LIMIT 1`
	var exists int
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check main pool: %w", err)
	}
	return true, nil
}

// Update overwrites the mutable columns and bumps updated_at.
func (r *PoolRepository) Update(ctx context.Context, exec sqlx.ExtContext, pool *models.Pool) error {
	pool.UpdatedAt = time.Now().UTC()
	if pool.Tags == nil {
		pool.Tags = []string{}
	}
	const query = `UPDATE pools SET name = :name, description = :description, pool_type = :pool_type, status = :status,
max_candidates = :max_candidates, visibility = :visibility, tags = :tags, updated_at = :updated_at
WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, pool)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pool rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus transitions a pool's status.
func (r *PoolRepository) UpdateStatus(ctx context.Context, id string, status models.PoolStatus) error {
	const query = `UPDATE pools SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update pool status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pool status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Touch bumps updated_at for mutations made through child tables.
func (r *PoolRepository) Touch(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE pools SET updated_at = $1 WHERE id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch pool: %w", err)
	}
	return nil
}

// Delete removes a pool together with its assignments, grants and selections.
func (r *PoolRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)
	for _, stmt := range []string{
		`DELETE FROM candidate_selections WHERE pool_id = $1`,
		`DELETE FROM pool_access_grants WHERE pool_id = $1`,
		`DELETE FROM pool_assignments WHERE pool_id = $1`,
	} {
		if _, err := target.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade pool delete: %w", err)
		}
	}
	result, err := target.ExecContext(ctx, `DELETE FROM pools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleted pool rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns pools filtered by the provided criteria.
func (r *PoolRepository) List(ctx context.Context, filter models.PoolFilter) ([]models.Pool, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PoolType != "" {
		args = append(args, filter.PoolType)
		conditions = append(conditions, fmt.Sprintf("pool_type = $%d", len(args)))
	}
	if filter.Visibility != "" {
		args = append(args, filter.Visibility)
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM pools%s ORDER BY (pool_type = 'main') DESC, created_at DESC LIMIT %d OFFSET %d`, poolColumns, clause, size, offset)
	var pools []models.Pool
	if err := r.db.SelectContext(ctx, &pools, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pools: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM pools"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count pools: %w", err)
	}
	return pools, total, nil
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
