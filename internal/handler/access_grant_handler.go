package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

type accessGrantService interface {
	Grant(ctx context.Context, poolID string, req dto.GrantAccessRequest, actor *models.Actor) (*models.AccessGrant, error)
	Update(ctx context.Context, grantID string, req dto.UpdateAccessRequest, actor *models.Actor) (*models.AccessGrant, error)
	Revoke(ctx context.Context, grantID string, actor *models.Actor) error
	ListByPool(ctx context.Context, poolID string, actor *models.Actor) ([]models.AccessGrant, error)
	ListByCompany(ctx context.Context, companyID string, actor *models.Actor) ([]models.AccessGrantDetail, error)
}

// AccessGrantHandler exposes company access management endpoints.
type AccessGrantHandler struct {
	service accessGrantService
}

// NewAccessGrantHandler builds a new handler.
func NewAccessGrantHandler(service accessGrantService) *AccessGrantHandler {
	return &AccessGrantHandler{service: service}
}

// Grant godoc
// @Summary Grant or replace a company's access to a pool
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path string true "Pool ID"
// @Param payload body dto.GrantAccessRequest true "Grant payload"
// @Success 201 {object} response.Envelope
// @Router /pools/{id}/grants [post]
func (h *AccessGrantHandler) Grant(c *gin.Context) {
	var req dto.GrantAccessRequest
	if err := bindJSON(c, &req, "invalid grant payload"); err != nil {
		response.Error(c, err)
		return
	}
	grant, err := h.service.Grant(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grant)
}

// ListByPool godoc
// @Summary List grants on a pool
// @Tags Grants
// @Produce json
// @Param id path string true "Pool ID"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/grants [get]
func (h *AccessGrantHandler) ListByPool(c *gin.Context) {
	grants, err := h.service.ListByPool(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grants)
}

// Update godoc
// @Summary Update a grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param payload body dto.UpdateAccessRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Router /grants/{id} [patch]
func (h *AccessGrantHandler) Update(c *gin.Context) {
	var req dto.UpdateAccessRequest
	if err := bindJSON(c, &req, "invalid grant payload"); err != nil {
		response.Error(c, err)
		return
	}
	grant, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grant)
}

// Revoke godoc
// @Summary Revoke a grant
// @Tags Grants
// @Param id path string true "Grant ID"
// @Success 204
// @Router /grants/{id} [delete]
func (h *AccessGrantHandler) Revoke(c *gin.Context) {
	if err := h.service.Revoke(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByCompany godoc
// @Summary List a company's active grants
// @Tags Grants
// @Produce json
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Router /companies/{companyId}/grants [get]
func (h *AccessGrantHandler) ListByCompany(c *gin.Context) {
	grants, err := h.service.ListByCompany(c.Request.Context(), c.Param("companyId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grants)
}
