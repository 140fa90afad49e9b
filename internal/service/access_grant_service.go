package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type grantStore interface {
	Upsert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error)
	FindByID(ctx context.Context, id string) (*models.AccessGrant, error)
	FindByPoolAndCompany(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string) (*models.AccessGrant, error)
	Update(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error)
	Delete(ctx context.Context, id string) (*models.AccessGrant, error)
	ListByPool(ctx context.Context, poolID string) ([]models.AccessGrant, error)
	ListActiveByCompany(ctx context.Context, companyID string, now time.Time) ([]models.AccessGrantDetail, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type poolFinder interface {
	FindByID(ctx context.Context, id string) (*models.Pool, error)
}

// AccessGrantService manages company permissions over pools and is the single
// place that decides whether a company may act on a pool.
type AccessGrantService struct {
	grants    grantStore
	pools     poolFinder
	cache     statsInvalidator
	events    eventEmitter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccessGrantService constructs the grant manager.
func NewAccessGrantService(grants grantStore, pools poolFinder, cache statsInvalidator, events eventEmitter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AccessGrantService {
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
	return &AccessGrantService{
		grants:    grants,
		pools:     pools,
		cache:     cache,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Grant creates the company's grant or replaces it in place.
func (s *AccessGrantService) Grant(ctx context.Context, poolID string, req dto.GrantAccessRequest, actor *models.Actor) (*models.AccessGrant, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grant payload")
	}
	if err := s.checkExpiry(req.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := s.pools.FindByID(ctx, poolID); err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}

	grant, err := s.grants.Upsert(ctx, &models.AccessGrant{
		PoolID:      poolID,
		CompanyID:   req.CompanyID,
		AccessLevel: req.AccessLevel,
		GrantedBy:   actor.ID,
		ExpiresAt:   utcPtr(req.ExpiresAt),
		Notes:       req.Notes,
	})
	if err != nil {
		if database.HasCode(err, database.CodeForeignKeyViolation) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pool not found")
		}
		return nil, internalError(err, "failed to grant access")
	}

	s.metrics.GrantChanged("grant")
	s.cache.InvalidatePool(ctx, poolID)
	s.events.Emit(ctx, models.EventAccessGranted, poolID, actor, map[string]interface{}{
		"grant_id":     grant.ID,
		"company_id":   grant.CompanyID,
		"access_level": grant.AccessLevel,
		"expires_at":   grant.ExpiresAt,
	})
	return grant, nil
}

// Update patches level, expiry and notes of an existing grant.
func (s *AccessGrantService) Update(ctx context.Context, grantID string, req dto.UpdateAccessRequest, actor *models.Actor) (*models.AccessGrant, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grant payload")
	}

	grant, err := s.grants.FindByID(ctx, grantID)
	if err != nil {
		return nil, notFoundOr(err, "grant", "failed to load grant")
	}
	if req.AccessLevel != nil {
		grant.AccessLevel = *req.AccessLevel
	}
	switch {
	case req.ClearExpiry:
		grant.ExpiresAt = nil
	case req.ExpiresAt != nil:
		if err := s.checkExpiry(req.ExpiresAt); err != nil {
			return nil, err
		}
		grant.ExpiresAt = utcPtr(req.ExpiresAt)
	}
	if req.Notes != nil {
		grant.Notes = req.Notes
	}

	updated, err := s.grants.Update(ctx, grant)
	if err != nil {
		return nil, notFoundOr(err, "grant", "failed to update grant")
	}
	s.metrics.GrantChanged("update")
	s.cache.InvalidatePool(ctx, updated.PoolID)
	return updated, nil
}

// Revoke hard-deletes a grant. Selections recorded under it are kept.
func (s *AccessGrantService) Revoke(ctx context.Context, grantID string, actor *models.Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	grant, err := s.grants.Delete(ctx, grantID)
	if err != nil {
		return notFoundOr(err, "grant", "failed to revoke grant")
	}
	s.metrics.GrantChanged("revoke")
	s.cache.InvalidatePool(ctx, grant.PoolID)
	s.events.Emit(ctx, models.EventAccessRevoked, grant.PoolID, actor, map[string]interface{}{
		"grant_id":   grant.ID,
		"company_id": grant.CompanyID,
	})
	return nil
}

// IsAuthorized reports whether the company currently holds at least the required level.
// A missing or lapsed grant is not an error.
func (s *AccessGrantService) IsAuthorized(ctx context.Context, poolID, companyID string, required models.AccessLevel) (bool, error) {
	return s.IsAuthorizedTx(ctx, nil, poolID, companyID, required)
}

// IsAuthorizedTx is IsAuthorized evaluated on the caller's transaction.
func (s *AccessGrantService) IsAuthorizedTx(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string, required models.AccessLevel) (bool, error) {
	level, err := s.activeLevel(ctx, exec, poolID, companyID)
	if err != nil {
		return false, err
	}
	return level != nil && level.Satisfies(required), nil
}

// ActiveLevel returns the company's unexpired access level, or nil.
func (s *AccessGrantService) ActiveLevel(ctx context.Context, poolID, companyID string) (*models.AccessLevel, error) {
	return s.activeLevel(ctx, nil, poolID, companyID)
}

func (s *AccessGrantService) activeLevel(ctx context.Context, exec sqlx.ExtContext, poolID, companyID string) (*models.AccessLevel, error) {
	if companyID == "" {
		return nil, nil
	}
	grant, err := s.grants.FindByPoolAndCompany(ctx, exec, poolID, companyID)
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, internalError(err, "failed to check access")
	}
	if grant.ExpiredAt(s.now()) {
		return nil, nil
	}
	level := grant.AccessLevel
	return &level, nil
}

// ListByPool returns every grant on the pool, expired ones included.
func (s *AccessGrantService) ListByPool(ctx context.Context, poolID string, actor *models.Actor) ([]models.AccessGrant, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.pools.FindByID(ctx, poolID); err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	grants, err := s.grants.ListByPool(ctx, poolID)
	if err != nil {
		return nil, internalError(err, "failed to list grants")
	}
	return grants, nil
}

// ListByCompany returns the company's active grants with pool descriptors.
func (s *AccessGrantService) ListByCompany(ctx context.Context, companyID string, actor *models.Actor) ([]models.AccessGrantDetail, error) {
	if err := requireCompanyScope(actor, companyID); err != nil {
		return nil, err
	}
	grants, err := s.grants.ListActiveByCompany(ctx, companyID, s.now().UTC())
	if err != nil {
		return nil, internalError(err, "failed to list grants")
	}
	return grants, nil
}

// SweepExpired deletes grants whose expiry is older than the cutoff.
func (s *AccessGrantService) SweepExpired(ctx context.Context, before time.Time) (int64, error) {
	removed, err := s.grants.DeleteExpiredBefore(ctx, before.UTC())
	if err != nil {
		return 0, internalError(err, "failed to sweep expired grants")
	}
	s.metrics.GrantsSwept(removed)
	if removed > 0 {
		s.logger.Info("expired grants swept", zap.Int64("removed", removed), zap.Time("before", before))
	}
	return removed, nil
}

func (s *AccessGrantService) checkExpiry(expiresAt *time.Time) error {
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return appErrors.Clone(appErrors.ErrValidation, "expires_at must be in the future")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
