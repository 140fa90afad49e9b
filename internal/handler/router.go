package handler

import (
	"github.com/gin-gonic/gin"

	internalmiddleware "github.com/noah-isme/talent-pool-api/internal/middleware"
	"github.com/noah-isme/talent-pool-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Pools       *PoolHandler
	Assignments *AssignmentHandler
	Grants      *AccessGrantHandler
	Selections  *SelectionHandler
	Stats       *StatsHandler
}

// RegisterRoutes mounts the authenticated API on group.
func RegisterRoutes(group *gin.RouterGroup, tokens internalmiddleware.TokenValidator, h Handlers) {
	secured := group.Group("")
	secured.Use(internalmiddleware.JWT(tokens))

	admin := internalmiddleware.RequireKinds(models.ActorAdmin)
	anyActor := internalmiddleware.RequireKinds(models.ActorAdmin, models.ActorCompany)
	sameCompany := internalmiddleware.RBAC(string(models.ActorAdmin), internalmiddleware.SameCompany)

	pools := secured.Group("/pools")
	pools.POST("", admin, h.Pools.Create)
	pools.GET("", admin, h.Pools.List)
	pools.GET("/:id", admin, h.Pools.Get)
	pools.PATCH("/:id", admin, h.Pools.Update)
	pools.POST("/:id/archive", admin, h.Pools.Archive)
	// The service refuses the main pool for everyone before it checks for admin.
	pools.DELETE("/:id", anyActor, h.Pools.Delete)

	pools.POST("/:id/candidates", admin, h.Assignments.Add)
	pools.GET("/:id/candidates", anyActor, h.Assignments.List)

	pools.POST("/:id/grants", admin, h.Grants.Grant)
	pools.GET("/:id/grants", admin, h.Grants.ListByPool)

	pools.POST("/:id/selections", anyActor, h.Selections.Record)
	pools.GET("/:id/companies/:companyId/selections", sameCompany, h.Selections.ListForCompany)

	pools.GET("/:id/stats", admin, h.Stats.Pool)
	pools.GET("/:id/companies/:companyId/stats", sameCompany, h.Stats.Company)

	assignments := secured.Group("/assignments")
	assignments.DELETE("/:id", admin, h.Assignments.Remove)
	assignments.POST("/:id/featured", admin, h.Assignments.ToggleFeatured)
	assignments.PATCH("/:id/priority", admin, h.Assignments.UpdatePriority)

	grants := secured.Group("/grants")
	grants.PATCH("/:id", admin, h.Grants.Update)
	grants.DELETE("/:id", admin, h.Grants.Revoke)

	secured.GET("/companies/:companyId/grants", sameCompany, h.Grants.ListByCompany)
}
