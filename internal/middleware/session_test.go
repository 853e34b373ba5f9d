package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/internal/store"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

type staticResolver struct {
	ws    *service.Workspace
	err   error
	token string
}

func (r *staticResolver) Resolve(ctx context.Context, token string) (*service.Workspace, error) {
	r.token = token
	return r.ws, r.err
}

func newEngine(resolver sessionResolver, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta(), Session(resolver), RequireRoles(roles...))
	r.GET("/", func(c *gin.Context) {
		ws, _ := WorkspaceFrom(c)
		SetMeta(c, "user", ws.User().ID)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	return r
}

func workspace(user models.User) *service.Workspace {
	return service.NewWorkspace("ws", user, nil, store.New())
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("bearer  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		_, err := bearerToken(header)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized, header)
	}
}

func TestSessionAttachesWorkspace(t *testing.T) {
	resolver := &staticResolver{ws: workspace(models.User{ID: "stud-1", Role: models.RoleStudent, IsActive: true})}
	r := newEngine(resolver, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", resolver.token)
	assert.Contains(t, rec.Body.String(), `"user":"stud-1"`)
	assert.Contains(t, rec.Body.String(), "processing_time_ms")
}

func TestSessionPropagatesResolveError(t *testing.T) {
	r := newEngine(&staticResolver{err: appErrors.ErrInactiveAccount}, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesRejectsOtherRoles(t *testing.T) {
	r := newEngine(&staticResolver{ws: workspace(models.User{ID: "lect-1", Role: models.RoleLecturer, IsActive: true})}, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}
