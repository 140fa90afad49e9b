package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

type assignmentService interface {
	Add(ctx context.Context, poolID string, req dto.AddCandidatesRequest, actor *models.Actor) (*models.AddResult, error)
	Remove(ctx context.Context, assignmentID string, actor *models.Actor) error
	ToggleFeatured(ctx context.Context, assignmentID string, actor *models.Actor) (*models.Assignment, error)
	UpdatePriority(ctx context.Context, assignmentID string, req dto.UpdatePriorityRequest, actor *models.Actor) (*models.Assignment, error)
	ListByPool(ctx context.Context, poolID string, query dto.ListAssignmentsQuery, actor *models.Actor) ([]models.Assignment, *models.Pagination, error)
}

// AssignmentHandler exposes candidate assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler builds a new handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// Add godoc
// @Summary Add candidates to a pool
// @Description All candidates are added or none. Exceeding the ceiling fails with CAPACITY_EXCEEDED.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Pool ID"
// @Param payload body dto.AddCandidatesRequest true "Candidate batch"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pools/{id}/candidates [post]
func (h *AssignmentHandler) Add(c *gin.Context) {
	var req dto.AddCandidatesRequest
	if err := bindJSON(c, &req, "invalid candidate batch"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Add(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.NearCapacity {
		meta = map[string]interface{}{"warning": result.Warning}
	}
	response.JSON(c, http.StatusCreated, result, nil, meta)
}

// List godoc
// @Summary List pool candidates
// @Tags Assignments
// @Produce json
// @Param id path string true "Pool ID"
// @Param featured query bool false "Featured only"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /pools/{id}/candidates [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var query dto.ListAssignmentsQuery
	if err := bindQuery(c, &query); err != nil {
		response.Error(c, err)
		return
	}
	items, page, err := h.service.ListByPool(c.Request.Context(), c.Param("id"), query, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, page)
}

// Remove godoc
// @Summary Remove a candidate from its pool
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleFeatured godoc
// @Summary Toggle the featured flag
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/featured [post]
func (h *AssignmentHandler) ToggleFeatured(c *gin.Context) {
	assignment, err := h.service.ToggleFeatured(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// UpdatePriority godoc
// @Summary Set an assignment's priority
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdatePriorityRequest true "Priority"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/priority [patch]
func (h *AssignmentHandler) UpdatePriority(c *gin.Context) {
	var req dto.UpdatePriorityRequest
	if err := bindJSON(c, &req, "invalid priority payload"); err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.service.UpdatePriority(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}
