package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// CasbinMiddleware defines the interface for Casbin authorization middleware
type CasbinMiddleware interface {
	Enforce() gin.HandlerFunc
}

// CasbinMW checks the caller's role against the route policies
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer) *CasbinMW {
	return &CasbinMW{enforcer: enforcer}
}

// Enforce returns the casbin authorization middleware. It must run after WithJWT.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(CtxUserRole)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated", "User role not found in token")
			return
		}

		allowed, err := mw.enforcer.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			abort(c, http.StatusInternalServerError, "internal_error", "Authorization check failed")
			return
		}
		if !allowed {
			abort(c, http.StatusForbidden, "forbidden", "Access denied")
			return
		}
		c.Next()
	}
}

var _ CasbinMiddleware = (*CasbinMW)(nil)
