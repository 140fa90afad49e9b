package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

const selectionColumns = `id, pool_id, candidate_id, company_id, selection_type, recorded_by, created_at, updated_at, unpooled_at`

// SelectionRepository persists company dispositions toward pooled candidates.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

func (r *SelectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert records the disposition for the (pool, candidate, company) triple in one statement.
// A retained row that was marked unpooled becomes live again.
func (r *SelectionRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, selection *models.Selection) (*models.Selection, error) {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO candidate_selections (` + selectionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, NULL)
ON CONFLICT (pool_id, candidate_id, company_id)
DO UPDATE SET selection_type = EXCLUDED.selection_type, recorded_by = EXCLUDED.recorded_by,
              updated_at = EXCLUDED.updated_at, unpooled_at = NULL
RETURNING ` + selectionColumns
	var stored models.Selection
	if err := sqlx.GetContext(ctx, r.exec(exec), &stored, query,
		selection.ID, selection.PoolID, selection.CandidateID, selection.CompanyID,
		selection.SelectionType, selection.RecordedBy, now,
	); err != nil {
		return nil, fmt.Errorf("upsert selection: %w", err)
	}
	return &stored, nil
}

// DeleteByPoolCandidate removes every company's selection of a candidate in a pool.
func (r *SelectionRepository) DeleteByPoolCandidate(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string) (int64, error) {
	const query = `DELETE FROM candidate_selections WHERE pool_id = $1 AND candidate_id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, poolID, candidateID)
	if err != nil {
		return 0, fmt.Errorf("delete candidate selections: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleted selection rows: %w", err)
	}
	return affected, nil
}

// MarkUnpooled flags a candidate's live selections as belonging to a removed assignment.
func (r *SelectionRepository) MarkUnpooled(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string, at time.Time) (int64, error) {
	const query = `UPDATE candidate_selections SET unpooled_at = $1
WHERE pool_id = $2 AND candidate_id = $3 AND unpooled_at IS NULL`
	result, err := r.exec(exec).ExecContext(ctx, query, at, poolID, candidateID)
	if err != nil {
		return 0, fmt.Errorf("mark selections unpooled: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unpooled selection rows: %w", err)
	}
	return affected, nil
}

// ListByPoolAndCompany returns a company's selections in a pool, newest first.
// Retained rows of removed candidates are included only when includeUnpooled is set.
func (r *SelectionRepository) ListByPoolAndCompany(ctx context.Context, poolID, companyID string, includeUnpooled bool) ([]models.Selection, error) {
	query := `SELECT ` + selectionColumns + ` FROM candidate_selections WHERE pool_id = $1 AND company_id = $2`
	if !includeUnpooled {
		query += ` AND unpooled_at IS NULL`
	}
	query += ` ORDER BY updated_at DESC`
	var selections []models.Selection
	if err := r.db.SelectContext(ctx, &selections, query, poolID, companyID); err != nil {
		return nil, fmt.Errorf("list company selections: %w", err)
	}
	return selections, nil
}
