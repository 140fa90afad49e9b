package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

const assignmentColumns = `id, pool_id, candidate_id, priority, featured, notes, added_by, added_at`

// AssignmentRepository persists candidate-to-pool assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CountByPool returns the live assignment count for a pool.
func (r *AssignmentRepository) CountByPool(ctx context.Context, exec sqlx.ExtContext, poolID string) (int, error) {
	const query = `SELECT COUNT(*) FROM pool_assignments WHERE pool_id = $1`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, poolID); err != nil {
		return 0, fmt.Errorf("count pool assignments: %w", err)
	}
	return count, nil
}

// AssignedCandidates returns which of candidateIDs are already assigned to the pool.
func (r *AssignmentRepository) AssignedCandidates(ctx context.Context, exec sqlx.ExtContext, poolID string, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT candidate_id FROM pool_assignments WHERE pool_id = $1 AND candidate_id = ANY($2) ORDER BY candidate_id`
	var existing []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &existing, query, poolID, pq.Array(candidateIDs)); err != nil {
		return nil, fmt.Errorf("check assigned candidates: %w", err)
	}
	return existing, nil
}

// InsertBatch writes all assignments in a single statement.
func (r *AssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].AddedAt.IsZero() {
			assignments[i].AddedAt = now
		}
	}
	const query = `INSERT INTO pool_assignments (` + assignmentColumns + `)
VALUES (:id, :pool_id, :candidate_id, :priority, :featured, :notes, :added_by, :added_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignments); err != nil {
		return fmt.Errorf("insert pool assignments: %w", err)
	}
	return nil
}

// FindByID loads an assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM pool_assignments WHERE id = $1`
	var assignment models.Assignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// LockLive loads the live assignment for a pool/candidate pair holding a share lock,
// so the assignment cannot be removed until the surrounding transaction ends.
func (r *AssignmentRepository) LockLive(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string) (*models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM pool_assignments WHERE pool_id = $1 AND candidate_id = $2 FOR SHARE`
	var assignment models.Assignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, poolID, candidateID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM pool_assignments WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete pool assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ToggleFeatured flips the featured flag and returns the updated row.
func (r *AssignmentRepository) ToggleFeatured(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `UPDATE pool_assignments SET featured = NOT featured WHERE id = $1 RETURNING ` + assignmentColumns
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdatePriority sets the priority and returns the updated row.
func (r *AssignmentRepository) UpdatePriority(ctx context.Context, id string, priority int) (*models.Assignment, error) {
	const query = `UPDATE pool_assignments SET priority = $1 WHERE id = $2 RETURNING ` + assignmentColumns
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, priority, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByPool returns a page of assignments ordered by priority then recency.
func (r *AssignmentRepository) ListByPool(ctx context.Context, poolID string, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	clause := ` WHERE pool_id = $1`
	if filter.FeaturedOnly {
		clause += ` AND featured`
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM pool_assignments%s ORDER BY priority DESC, added_at DESC LIMIT %d OFFSET %d`, assignmentColumns, clause, size, offset)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, poolID); err != nil {
		return nil, 0, fmt.Errorf("list pool assignments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pool_assignments`+clause, poolID); err != nil {
		return nil, 0, fmt.Errorf("count listed assignments: %w", err)
	}
	return assignments, total, nil
}
