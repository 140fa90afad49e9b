package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type liveAssignmentLocker interface {
	LockLive(ctx context.Context, exec sqlx.ExtContext, poolID, candidateID string) (*models.Assignment, error)
}

type selectionStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, selection *models.Selection) (*models.Selection, error)
	ListByPoolAndCompany(ctx context.Context, poolID, companyID string, includeUnpooled bool) ([]models.Selection, error)
}

type accessAuthorizer interface {
	IsAuthorizedTx(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string, required models.AccessLevel) (bool, error)
}

// SelectionService records company dispositions toward pooled candidates.
type SelectionService struct {
	assignments liveAssignmentLocker
	selections  selectionStore
	pools       poolFinder
	access      accessAuthorizer
	tx          txRunner
	cache       statsInvalidator
	events      eventEmitter
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSelectionService wires the selection tracker.
func NewSelectionService(
	assignments liveAssignmentLocker,
	selections selectionStore,
	pools poolFinder,
	access accessAuthorizer,
	tx txRunner,
	cache statsInvalidator,
	events eventEmitter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SelectionService {
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
	return &SelectionService{
		assignments: assignments,
		selections:  selections,
		pools:       pools,
		access:      access,
		tx:          tx,
		cache:       cache,
		events:      events,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Record upserts the company's disposition toward a candidate. The candidate must be
// live in the pool and the company must hold the level the disposition requires.
// Any transition between dispositions is allowed.
func (s *SelectionService) Record(ctx context.Context, poolID string, req dto.RecordSelectionRequest, actor *models.Actor) (*models.Selection, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.CandidateID = strings.TrimSpace(req.CandidateID)
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	if req.CompanyID == "" && !actor.IsAdmin() {
		req.CompanyID = actor.CompanyID
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid selection payload")
	}
	if req.CompanyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "company_id is required")
	}
	if err := requireCompanyScope(actor, req.CompanyID); err != nil {
		return nil, err
	}
	required := req.SelectionType.RequiredLevel()

	var recorded *models.Selection
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if _, err := s.assignments.LockLive(ctx, exec, poolID, req.CandidateID); err != nil {
			if isMissing(err) {
				return appErrors.ErrNotAssigned
			}
			return err
		}

		ok, err := s.access.IsAuthorizedTx(ctx, exec, poolID, req.CompanyID, required)
		if err != nil {
			return err
		}
		if !ok {
			s.metrics.PermissionDenied(required)
			return permissionDenied(required)
		}

		recorded, err = s.selections.Upsert(ctx, exec, &models.Selection{
			PoolID:        poolID,
			CandidateID:   req.CandidateID,
			CompanyID:     req.CompanyID,
			SelectionType: req.SelectionType,
			RecordedBy:    actor.ID,
		})
		return err
	})
	if err != nil {
		return nil, internalError(err, "failed to record selection")
	}

	s.metrics.SelectionRecorded(recorded.SelectionType)
	s.cache.InvalidatePool(ctx, poolID)
	s.events.Emit(ctx, models.EventSelectionRecorded, poolID, actor, map[string]interface{}{
		"selection_id":   recorded.ID,
		"candidate_id":   recorded.CandidateID,
		"company_id":     recorded.CompanyID,
		"selection_type": recorded.SelectionType,
	})
	return recorded, nil
}

// ListForCompany returns the company's current selections in the pool.
func (s *SelectionService) ListForCompany(ctx context.Context, poolID, companyID string, actor *models.Actor) ([]models.Selection, error) {
	if err := requireCompanyScope(actor, companyID); err != nil {
		return nil, err
	}
	if _, err := s.pools.FindByID(ctx, poolID); err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	selections, err := s.selections.ListByPoolAndCompany(ctx, poolID, companyID, false)
	if err != nil {
		return nil, internalError(err, "failed to list selections")
	}
	return selections, nil
}
