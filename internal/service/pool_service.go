package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type poolStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, pool *models.Pool) error
	FindByID(ctx context.Context, id string) (*models.Pool, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Pool, error)
	MainExists(ctx context.Context, exec sqlx.ExtContext, excludeID string) (bool, error)
	Update(ctx context.Context, exec sqlx.ExtContext, pool *models.Pool) error
	UpdateStatus(ctx context.Context, id string, status models.PoolStatus) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	List(ctx context.Context, filter models.PoolFilter) ([]models.Pool, int, error)
}

type poolAssignmentCounter interface {
	CountByPool(ctx context.Context, exec sqlx.ExtContext, poolID string) (int, error)
}

// PoolService owns pool lifecycle and pool-level invariants.
type PoolService struct {
	pools       poolStore
	assignments poolAssignmentCounter
	tx          txRunner
	cache       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPoolService builds a PoolService with sane defaults.
func NewPoolService(pools poolStore, assignments poolAssignmentCounter, tx txRunner, cache statsInvalidator, validate *validator.Validate, logger *zap.Logger) *PoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &PoolService{pools: pools, assignments: assignments, tx: tx, cache: cache, validator: validate, logger: logger}
}

// Create registers a new pool. Only one main pool may exist.
func (s *PoolService) Create(ctx context.Context, req dto.CreatePoolRequest, actor *models.Actor) (*models.Pool, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid pool payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}

	pool := &models.Pool{
		Name:          name,
		Description:   req.Description,
		PoolType:      req.PoolType,
		Status:        req.Status,
		MaxCandidates: req.MaxCandidates,
		Visibility:    req.Visibility,
		Tags:          normaliseTags(req.Tags),
		CreatedBy:     actor.ID,
	}
	if pool.PoolType == "" {
		pool.PoolType = models.PoolTypeCustom
	}
	if pool.Status == "" {
		pool.Status = models.PoolStatusActive
	}
	if pool.Visibility == "" {
		pool.Visibility = models.PoolVisibilityPrivate
	}

	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if pool.IsMain() {
			exists, err := s.pools.MainExists(ctx, exec, "")
			if err != nil {
				return err
			}
			if exists {
				return appErrors.Clone(appErrors.ErrValidation, "a main pool already exists")
			}
		}
		return s.pools.Create(ctx, exec, pool)
	})
	if err != nil {
		if database.HasCode(err, database.CodeUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a main pool already exists")
		}
		return nil, internalError(err, "failed to create pool")
	}

	s.logger.Info("pool created", zap.String("pool_id", pool.ID), zap.String("pool_type", string(pool.PoolType)), zap.String("actor_id", actor.ID))
	return pool, nil
}

// Update applies a partial patch. Lowering the ceiling below the live count fails
// with CAPACITY_CONFLICT and leaves the pool untouched.
func (s *PoolService) Update(ctx context.Context, id string, req dto.UpdatePoolRequest, actor *models.Actor) (*models.Pool, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid pool payload")
	}

	var updated *models.Pool
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		pool, err := s.pools.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "pool", "failed to load pool")
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return appErrors.Clone(appErrors.ErrValidation, "name is required")
			}
			pool.Name = name
		}
		if req.Description != nil {
			pool.Description = req.Description
		}
		if req.PoolType != nil && *req.PoolType != pool.PoolType {
			if pool.IsMain() {
				return appErrors.Clone(appErrors.ErrProtectedResource, "the main pool type cannot be changed")
			}
			if *req.PoolType == models.PoolTypeMain {
				exists, err := s.pools.MainExists(ctx, exec, pool.ID)
				if err != nil {
					return err
				}
				if exists {
					return appErrors.Clone(appErrors.ErrValidation, "a main pool already exists")
				}
			}
			pool.PoolType = *req.PoolType
		}
		if req.Status != nil {
			pool.Status = *req.Status
		}
		if req.Visibility != nil {
			pool.Visibility = *req.Visibility
		}
		if req.Tags != nil {
			pool.Tags = normaliseTags(req.Tags)
		}

		switch {
		case req.ClearMaxCandidates:
			pool.MaxCandidates = nil
		case req.MaxCandidates != nil:
			current, err := s.assignments.CountByPool(ctx, exec, pool.ID)
			if err != nil {
				return err
			}
			if *req.MaxCandidates < current {
				return appErrors.WithDetails(appErrors.ErrCapacityConflict, "", models.CapacityConflictDetail{
					Current:          current,
					RequestedCeiling: *req.MaxCandidates,
				})
			}
			ceiling := *req.MaxCandidates
			pool.MaxCandidates = &ceiling
		}

		if err := s.pools.Update(ctx, exec, pool); err != nil {
			return err
		}
		updated = pool
		return nil
	})
	if err != nil {
		if database.HasCode(err, database.CodeUniqueViolation) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a main pool already exists")
		}
		return nil, notFoundOr(err, "pool", "failed to update pool")
	}

	s.cache.InvalidatePool(ctx, id)
	return updated, nil
}

// Archive moves the pool to the archived status.
func (s *PoolService) Archive(ctx context.Context, id string, actor *models.Actor) (*models.Pool, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.pools.UpdateStatus(ctx, id, models.PoolStatusArchived); err != nil {
		return nil, notFoundOr(err, "pool", "failed to archive pool")
	}
	s.cache.InvalidatePool(ctx, id)
	pool, err := s.pools.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	return pool, nil
}

// Delete removes a non-main pool with its assignments, grants and selections.
// The main pool is refused for every actor.
func (s *PoolService) Delete(ctx context.Context, id string, actor *models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		pool, err := s.pools.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "pool", "failed to load pool")
		}
		if pool.IsMain() {
			return appErrors.Clone(appErrors.ErrProtectedResource, "the main pool cannot be deleted")
		}
		if !actor.IsAdmin() {
			return appErrors.ErrForbidden
		}
		return s.pools.Delete(ctx, exec, id)
	})
	if err != nil {
		return notFoundOr(err, "pool", "failed to delete pool")
	}
	s.cache.InvalidatePool(ctx, id)
	s.logger.Info("pool deleted", zap.String("pool_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// Get returns a pool.
func (s *PoolService) Get(ctx context.Context, id string) (*models.Pool, error) {
	pool, err := s.pools.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	return pool, nil
}

// List returns a page of pools.
func (s *PoolService) List(ctx context.Context, query dto.ListPoolsQuery) ([]models.Pool, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid filter")
	}
	filter := models.PoolFilter{
		Status:     models.PoolStatus(query.Status),
		PoolType:   models.PoolType(query.PoolType),
		Visibility: models.PoolVisibility(query.Visibility),
		Search:     strings.TrimSpace(query.Search),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	pools, total, err := s.pools.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list pools")
	}
	return pools, pagination(query.Page, query.PageSize, total), nil
}

func normaliseTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
