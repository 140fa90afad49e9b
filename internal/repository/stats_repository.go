package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

// StatsRepository runs the read-only aggregates behind pool statistics.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// AssignmentCounts returns total and featured live assignments.
func (r *StatsRepository) AssignmentCounts(ctx context.Context, poolID string) (models.AssignmentCounts, error) {
	const query = `
SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE featured) AS featured
FROM pool_assignments
WHERE pool_id = $1`
	var counts models.AssignmentCounts
	if err := r.db.GetContext(ctx, &counts, query, poolID); err != nil {
		return models.AssignmentCounts{}, fmt.Errorf("aggregate assignments: %w", err)
	}
	return counts, nil
}

// GrantCounts returns total grants, those still unexpired at now and the next expiry.
func (r *StatsRepository) GrantCounts(ctx context.Context, poolID string, now time.Time) (models.GrantCounts, error) {
	const query = `
SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE expires_at IS NULL OR expires_at >= $2) AS active,
       MIN(expires_at) FILTER (WHERE expires_at >= $2) AS next_expiry
FROM pool_access_grants
WHERE pool_id = $1`
	var counts models.GrantCounts
	if err := r.db.GetContext(ctx, &counts, query, poolID, now); err != nil {
		return models.GrantCounts{}, fmt.Errorf("aggregate grants: %w", err)
	}
	return counts, nil
}

// SkillHistogram counts skills across the pool's assigned candidates, most frequent first.
func (r *StatsRepository) SkillHistogram(ctx context.Context, poolID string, limit int) ([]models.SkillCount, error) {
	const query = `
SELECT skill, COUNT(*) AS count
FROM pool_assignments a
JOIN candidates c ON c.id::text = a.candidate_id
CROSS JOIN LATERAL unnest(c.skills) AS skill
WHERE a.pool_id = $1
GROUP BY skill
ORDER BY count DESC, skill ASC
LIMIT $2`
	var skills []models.SkillCount
	if err := r.db.SelectContext(ctx, &skills, query, poolID, limit); err != nil {
		return nil, fmt.Errorf("aggregate skills: %w", err)
	}
	return skills, nil
}

// SelectionBreakdown counts live selections by type, optionally scoped to one company.
func (r *StatsRepository) SelectionBreakdown(ctx context.Context, poolID, companyID string) ([]models.SelectionTypeCount, error) {
	query := `SELECT selection_type, COUNT(*) AS count FROM candidate_selections WHERE pool_id = $1 AND unpooled_at IS NULL`
	args := []interface{}{poolID}
	if companyID != "" {
		args = append(args, companyID)
		query += ` AND company_id = $2`
	}
	query += ` GROUP BY selection_type`
	var rows []models.SelectionTypeCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate selections: %w", err)
	}
	return rows, nil
}
