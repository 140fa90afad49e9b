package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

type selectionService interface {
	Record(ctx context.Context, poolID string, req dto.RecordSelectionRequest, actor *models.Actor) (*models.Selection, error)
	ListForCompany(ctx context.Context, poolID, companyID string, actor *models.Actor) ([]models.Selection, error)
}

// SelectionHandler exposes company selection endpoints.
type SelectionHandler struct {
	service selectionService
}

// NewSelectionHandler builds a new handler.
func NewSelectionHandler(service selectionService) *SelectionHandler {
	return &SelectionHandler{service: service}
}

// Record godoc
// @Summary Record a company's disposition toward a pooled candidate
// @Description contacted requires contact access; the other types require select.
// @Tags Selections
// @Accept json
// @Produce json
// @Param id path string true "Pool ID"
// @Param payload body dto.RecordSelectionRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pools/{id}/selections [post]
func (h *SelectionHandler) Record(c *gin.Context) {
	var req dto.RecordSelectionRequest
	if err := bindJSON(c, &req, "invalid selection payload"); err != nil {
		response.Error(c, err)
		return
	}
	selection, err := h.service.Record(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, selection)
}

// ListForCompany godoc
// @Summary List a company's selections in a pool
// @Tags Selections
// @Produce json
// @Param id path string true "Pool ID"
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/companies/{companyId}/selections [get]
func (h *SelectionHandler) ListForCompany(c *gin.Context) {
	selections, err := h.service.ListForCompany(c.Request.Context(), c.Param("id"), c.Param("companyId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, selections)
}
