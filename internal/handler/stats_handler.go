package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

type statsService interface {
	PoolStats(ctx context.Context, poolID string, actor *models.Actor) (*models.PoolStats, error)
	CompanyPoolStats(ctx context.Context, poolID, companyID string, actor *models.Actor) (*models.CompanyPoolStats, error)
}

// StatsHandler exposes derived pool statistics.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler builds a new handler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Pool godoc
// @Summary Pool statistics
// @Tags Stats
// @Produce json
// @Param id path string true "Pool ID"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/stats [get]
func (h *StatsHandler) Pool(c *gin.Context) {
	stats, err := h.service.PoolStats(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// Company godoc
// @Summary Pool statistics for one company
// @Tags Stats
// @Produce json
// @Param id path string true "Pool ID"
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/companies/{companyId}/stats [get]
func (h *StatsHandler) Company(c *gin.Context) {
	stats, err := h.service.CompanyPoolStats(c.Request.Context(), c.Param("id"), c.Param("companyId"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
