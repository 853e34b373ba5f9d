package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/service"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/response"
)

// Context keys set by Session.
const (
	ContextWorkspaceKey = "workspace"
	ContextTokenKey     = "bearerToken"
)

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*service.Workspace, error)
}

// Session requires a bearer token and attaches the caller's workspace.
func Session(sessions sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		ws, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextTokenKey, token)
		c.Set(ContextWorkspaceKey, ws)
		c.Next()
	}
}

// WorkspaceFrom returns the workspace attached by Session.
func WorkspaceFrom(c *gin.Context) (*service.Workspace, bool) {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil, false
	}
	ws, ok := value.(*service.Workspace)
	return ws, ok && ws != nil
}

// TokenFrom returns the bearer token attached by Session.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
