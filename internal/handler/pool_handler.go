package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

type poolService interface {
	Create(ctx context.Context, req dto.CreatePoolRequest, actor *models.Actor) (*models.Pool, error)
	Update(ctx context.Context, id string, req dto.UpdatePoolRequest, actor *models.Actor) (*models.Pool, error)
	Archive(ctx context.Context, id string, actor *models.Actor) (*models.Pool, error)
	Delete(ctx context.Context, id string, actor *models.Actor) error
	Get(ctx context.Context, id string) (*models.Pool, error)
	List(ctx context.Context, query dto.ListPoolsQuery) ([]models.Pool, *models.Pagination, error)
}

// PoolHandler exposes pool lifecycle endpoints.
type PoolHandler struct {
	service poolService
}

// NewPoolHandler builds a new handler.
func NewPoolHandler(service poolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// Create godoc
// @Summary Create a candidate pool
// @Tags Pools
// @Accept json
// @Produce json
// @Param payload body dto.CreatePoolRequest true "Pool payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pools [post]
func (h *PoolHandler) Create(c *gin.Context) {
	var req dto.CreatePoolRequest
	if err := bindJSON(c, &req, "invalid pool payload"); err != nil {
		response.Error(c, err)
		return
	}
	pool, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pool)
}

// List godoc
// @Summary List pools
// @Tags Pools
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "Pool type filter"
// @Param visibility query string false "Visibility filter"
// @Param q query string false "Name search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /pools [get]
func (h *PoolHandler) List(c *gin.Context) {
	var query dto.ListPoolsQuery
	if err := bindQuery(c, &query); err != nil {
		response.Error(c, err)
		return
	}
	pools, page, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pools, page)
}

// Get godoc
// @Summary Get a pool
// @Tags Pools
// @Produce json
// @Param id path string true "Pool ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pools/{id} [get]
func (h *PoolHandler) Get(c *gin.Context) {
	pool, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Update godoc
// @Summary Update a pool
// @Description Lowering max_candidates below the live count fails with CAPACITY_CONFLICT.
// @Tags Pools
// @Accept json
// @Produce json
// @Param id path string true "Pool ID"
// @Param payload body dto.UpdatePoolRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pools/{id} [patch]
func (h *PoolHandler) Update(c *gin.Context) {
	var req dto.UpdatePoolRequest
	if err := bindJSON(c, &req, "invalid pool payload"); err != nil {
		response.Error(c, err)
		return
	}
	pool, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Archive godoc
// @Summary Archive a pool
// @Tags Pools
// @Produce json
// @Param id path string true "Pool ID"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/archive [post]
func (h *PoolHandler) Archive(c *gin.Context) {
	pool, err := h.service.Archive(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pool)
}

// Delete godoc
// @Summary Delete a pool
// @Description Admins may delete any pool except the main pool, which reports PROTECTED_RESOURCE to every caller.
// @Tags Pools
// @Param id path string true "Pool ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /pools/{id} [delete]
func (h *PoolHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
