package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/config"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type assignmentPoolLocker interface {
	FindByID(ctx context.Context, id string) (*models.Pool, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Pool, error)
	Touch(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type assignmentStore interface {
	CountByPool(ctx context.Context, exec sqlx.ExtContext, poolID string) (int, error)
	AssignedCandidates(ctx context.Context, exec sqlx.ExtContext, poolID string, candidateIDs []string) ([]string, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Assignment, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	ToggleFeatured(ctx context.Context, id string) (*models.Assignment, error)
	UpdatePriority(ctx context.Context, id string, priority int) (*models.Assignment, error)
	ListByPool(ctx context.Context, poolID string, filter models.AssignmentFilter) ([]models.Assignment, int, error)
}

type selectionRetainer interface {
	DeleteByPoolCandidate(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string) (int64, error)
	MarkUnpooled(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string, at time.Time) (int64, error)
}

type assignmentViewAuthorizer interface {
	IsAuthorized(ctx context.Context, poolID, companyID string, required models.AccessLevel) (bool, error)
}

// AssignmentOptions tunes the assignment manager.
type AssignmentOptions struct {
	NearCapacityRatio  float64
	MaxBatchSize       int
	SelectionRetention string
}

// AssignmentOptionsFromConfig maps pool configuration onto assignment options.
func AssignmentOptionsFromConfig(cfg config.PoolsConfig) AssignmentOptions {
	return AssignmentOptions{
		NearCapacityRatio:  cfg.NearCapacityRatio,
		MaxBatchSize:       cfg.MaxBatchSize,
		SelectionRetention: cfg.SelectionRetention,
	}
}

// AssignmentService adds and removes candidates while enforcing pool capacity.
type AssignmentService struct {
	pools       assignmentPoolLocker
	assignments assignmentStore
	selections  selectionRetainer
	access      assignmentViewAuthorizer
	tx          txRunner
	cache       statsInvalidator
	events      eventEmitter
	metrics     *MetricsService
	opts        AssignmentOptions
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService builds an AssignmentService with sane defaults.
func NewAssignmentService(
	pools assignmentPoolLocker,
	assignments assignmentStore,
	selections selectionRetainer,
	access assignmentViewAuthorizer,
	tx txRunner,
	cache statsInvalidator,
	events eventEmitter,
	metrics *MetricsService,
	opts AssignmentOptions,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if opts.NearCapacityRatio <= 0 || opts.NearCapacityRatio > 1 {
		opts.NearCapacityRatio = 0.8
	}
	if opts.SelectionRetention != config.SelectionRetentionRetain {
		opts.SelectionRetention = config.SelectionRetentionCascade
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if events == nil {
		events = noopEmitter{}
	}
	return &AssignmentService{
		pools:       pools,
		assignments: assignments,
		selections:  selections,
		access:      access,
		tx:          tx,
		cache:       cache,
		events:      events,
		metrics:     metrics,
		opts:        opts,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Add assigns every candidate in the batch or none of them. The pool row stays
// locked from the count through the insert.
func (s *AssignmentService) Add(ctx context.Context, poolID string, req dto.AddCandidatesRequest, actor *models.Actor) (*models.AddResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid candidate batch")
	}
	if s.opts.MaxBatchSize > 0 && len(req.CandidateIDs) > s.opts.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d candidates per batch", s.opts.MaxBatchSize))
	}
	if repeated := repeatedIDs(req.CandidateIDs); len(repeated) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrDuplicateAssignment, "candidate listed more than once in batch",
			models.DuplicateAssignmentDetail{CandidateIDs: repeated})
	}

	var (
		pool   *models.Pool
		result *models.AddResult
	)
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		pool, err = s.pools.LockByID(ctx, exec, poolID)
		if err != nil {
			return notFoundOr(err, "pool", "failed to load pool")
		}
		if pool.Status == models.PoolStatusArchived {
			return appErrors.ErrPoolArchived
		}

		current, err := s.assignments.CountByPool(ctx, exec, poolID)
		if err != nil {
			return err
		}

		existing, err := s.assignments.AssignedCandidates(ctx, exec, poolID, req.CandidateIDs)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return appErrors.WithDetails(appErrors.ErrDuplicateAssignment, "", models.DuplicateAssignmentDetail{CandidateIDs: existing})
		}

		requested := len(req.CandidateIDs)
		total := current + requested
		result = &models.AddResult{Count: total, Ceiling: pool.MaxCandidates}
		if pool.Bounded() {
			ceiling := *pool.MaxCandidates
			if total > ceiling {
				available := ceiling - current
				if available < 0 {
					available = 0
				}
				return appErrors.WithDetails(appErrors.ErrCapacityExceeded,
					fmt.Sprintf("%d of %d candidates could not be added: pool limit reached", requested-available, requested),
					models.CapacityExceededDetail{Current: current, Ceiling: ceiling, Requested: requested, Available: available})
			}
			if float64(total) >= s.opts.NearCapacityRatio*float64(ceiling) {
				result.NearCapacity = true
				result.Warning = fmt.Sprintf("pool is near capacity: %d of %d", total, ceiling)
			}
		}

		batch := make([]models.Assignment, 0, requested)
		for _, candidateID := range req.CandidateIDs {
			batch = append(batch, models.Assignment{
				PoolID:      poolID,
				CandidateID: candidateID,
				Priority:    req.Priority,
				Featured:    req.Featured,
				Notes:       req.Notes,
				AddedBy:     actor.ID,
			})
		}
		if err := s.assignments.InsertBatch(ctx, exec, batch); err != nil {
			return err
		}
		result.Added = batch
		return s.pools.Touch(ctx, exec, poolID)
	})
	if err != nil {
		switch {
		case errors.Is(err, appErrors.ErrCapacityExceeded):
			s.metrics.CapacityRejected(appErrors.ErrCapacityExceeded.Code)
		case database.HasCode(err, database.CodeUniqueViolation):
			return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "candidate was assigned concurrently")
		}
		return nil, notFoundOr(err, "pool", "failed to add candidates")
	}

	s.metrics.AssignmentsAdded(pool.PoolType, len(result.Added))
	s.cache.InvalidatePool(ctx, poolID)
	s.events.Emit(ctx, models.EventCandidatesAdded, poolID, actor, map[string]interface{}{
		"candidate_ids": req.CandidateIDs,
		"count":         result.Count,
		"near_capacity": result.NearCapacity,
	})
	if result.NearCapacity {
		s.logger.Warn("pool near capacity", zap.String("pool_id", poolID), zap.Int("count", result.Count))
	}
	return result, nil
}

// Remove deletes an assignment and applies the selection retention policy in the same transaction.
func (s *AssignmentService) Remove(ctx context.Context, assignmentID string, actor *models.Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var removed *models.Assignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		assignment, err := s.assignments.FindByID(ctx, exec, assignmentID)
		if err != nil {
			return notFoundOr(err, "assignment", "failed to load assignment")
		}
		if err := s.assignments.Delete(ctx, exec, assignmentID); err != nil {
			return notFoundOr(err, "assignment", "failed to remove assignment")
		}
		if s.opts.SelectionRetention == config.SelectionRetentionRetain {
			_, err = s.selections.MarkUnpooled(ctx, exec, assignment.PoolID, assignment.CandidateID, s.now().UTC())
		} else {
			_, err = s.selections.DeleteByPoolCandidate(ctx, exec, assignment.PoolID, assignment.CandidateID)
		}
		if err != nil {
			return err
		}
		removed = assignment
		return s.pools.Touch(ctx, exec, assignment.PoolID)
	})
	if err != nil {
		return notFoundOr(err, "assignment", "failed to remove assignment")
	}

	s.metrics.AssignmentRemoved()
	s.cache.InvalidatePool(ctx, removed.PoolID)
	s.events.Emit(ctx, models.EventCandidateRemoved, removed.PoolID, actor, map[string]interface{}{
		"assignment_id":      removed.ID,
		"candidate_id":       removed.CandidateID,
		"selection_strategy": s.opts.SelectionRetention,
	})
	return nil
}

// ToggleFeatured flips the featured flag.
func (s *AssignmentService) ToggleFeatured(ctx context.Context, assignmentID string, actor *models.Actor) (*models.Assignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.ToggleFeatured(ctx, assignmentID)
	if err != nil {
		return nil, notFoundOr(err, "assignment", "failed to toggle featured")
	}
	s.cache.InvalidatePool(ctx, assignment.PoolID)
	return assignment, nil
}

// UpdatePriority changes an assignment's ordering priority.
func (s *AssignmentService) UpdatePriority(ctx context.Context, assignmentID string, req dto.UpdatePriorityRequest, actor *models.Actor) (*models.Assignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid priority payload")
	}
	assignment, err := s.assignments.UpdatePriority(ctx, assignmentID, *req.Priority)
	if err != nil {
		return nil, notFoundOr(err, "assignment", "failed to update priority")
	}
	return assignment, nil
}

// ListByPool lists a pool's candidates by priority then recency. Company actors need view access.
func (s *AssignmentService) ListByPool(ctx context.Context, poolID string, query dto.ListAssignmentsQuery, actor *models.Actor) ([]models.Assignment, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid filter")
	}
	if _, err := s.pools.FindByID(ctx, poolID); err != nil {
		return nil, nil, notFoundOr(err, "pool", "failed to load pool")
	}
	if !actor.IsAdmin() {
		ok, err := s.access.IsAuthorized(ctx, poolID, actor.CompanyID, models.AccessLevelView)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			s.metrics.PermissionDenied(models.AccessLevelView)
			return nil, nil, permissionDenied(models.AccessLevelView)
		}
	}

	items, total, err := s.assignments.ListByPool(ctx, poolID, models.AssignmentFilter{
		FeaturedOnly: query.FeaturedOnly,
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
	if err != nil {
		return nil, nil, internalError(err, "failed to list assignments")
	}
	return items, pagination(query.Page, query.PageSize, total), nil
}

func repeatedIDs(ids []string) []string {
	seen := make(map[string]int, len(ids))
	for _, id := range ids {
		seen[id]++
	}
	var repeated []string
	for id, n := range seen {
		if n > 1 {
			repeated = append(repeated, id)
		}
	}
	sort.Strings(repeated)
	return repeated
}
