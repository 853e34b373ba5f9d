package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/response"
)

// RequireRoles gates a route group on the session role. It must run after
// Session. Per-entity decisions are left to the authorization guard.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		ws, ok := WorkspaceFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		user := ws.User()
		if !user.IsActive {
			response.Error(c, appErrors.ErrInactiveAccount)
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "route not available to role "+string(user.Role)))
			c.Abort()
			return
		}
		c.Next()
	}
}
