package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/permissions"
)

// Authorizer is satisfied by *permissions.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, actor permissions.Actor, action, resourceID string, required ...permissions.Capability) error
}

// RequireCapability guards routes whose handler has no service-level check.
// The attempt is audited under action.
func RequireCapability(gate Authorizer, action string, caps ...permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Authorize(c.Request.Context(), Actor(c), action, c.Param("id"), caps...); err != nil {
			status, result := apperr.ToResult(err)
			c.AbortWithStatusJSON(status, result)
			return
		}
		c.Next()
	}
}
