package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/middleware"
	"github.com/noah-isme/talent-pool-api/internal/models"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.Claims(c).Actor()
}

func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
	}
	return nil
}

func bindQuery(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindQuery(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters")
	}
	return nil
}
