package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn database.TxFunc) error
}

type eventEmitter interface {
	Emit(ctx context.Context, eventType, poolID string, actor *models.Actor, payload map[string]interface{})
}

type statsInvalidator interface {
	InvalidatePool(ctx context.Context, poolID string)
}

func requireActor(actor *models.Actor) error {
	if actor == nil || actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor *models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return appErrors.ErrForbidden
	}
	return nil
}

func requireCompanyScope(actor *models.Actor, companyID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.ActsFor(companyID) {
		return appErrors.Clone(appErrors.ErrForbidden, "actor cannot act for this company")
	}
	return nil
}

// isMissing reports whether a lookup found no row. An id that is not a valid
// UUID cannot name a row either.
func isMissing(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || database.HasCode(err, database.CodeInvalidTextRepresentation)
}

// notFoundOr maps a missing row to a NOT_FOUND error and keeps typed errors intact.
func notFoundOr(err error, resource, internalMessage string) error {
	if isMissing(err) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMessage)
}

func internalError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func permissionDenied(required models.AccessLevel) error {
	return appErrors.WithDetails(appErrors.ErrPermissionDenied, "", map[string]interface{}{
		"required_level": required,
	})
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidatePool(context.Context, string) {}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, string, *models.Actor, map[string]interface{}) {}
