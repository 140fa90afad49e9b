package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/models"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
	"github.com/noah-isme/talent-pool-api/pkg/response"
)

// SameCompany allows company actors whose company matches the named route parameter.
const SameCompany = "SAME_COMPANY"

// RBAC enforces actor-kind access control for routes. SameCompany admits a
// company actor only when the :companyId route parameter is its own company.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		allowSame := false
		allowedKinds := make(map[models.ActorKind]struct{})
		for _, a := range allowed {
			if a == SameCompany {
				allowSame = true
				continue
			}
			allowedKinds[models.ActorKind(a)] = struct{}{}
		}

		if _, ok := allowedKinds[claims.Kind]; ok {
			c.Next()
			return
		}

		if allowSame && claims.Kind == models.ActorCompany {
			if target := c.Param("companyId"); target != "" && target == claims.CompanyID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
	}
}

// RequireKinds is a helper that accepts a list of actor kinds.
func RequireKinds(kinds ...models.ActorKind) gin.HandlerFunc {
	allowed := make([]string, len(kinds))
	for i, k := range kinds {
		allowed[i] = string(k)
	}
	return RBAC(allowed...)
}
