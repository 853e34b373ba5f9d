package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/authz"
	"github.com/noah-isme/lms-portal/internal/dto"
	"github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/internal/store"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type workspaceLoader interface {
	LoadAdmin(ctx context.Context, ws *service.Workspace, departmentID string) error
	LoadLecturer(ctx context.Context, ws *service.Workspace) error
	LoadStudent(ctx context.Context, ws *service.Workspace) error
	LoadRoster(ctx context.Context, ws *service.Workspace, moduleID string) ([]models.User, error)
}

type dashboardBuilder interface {
	Admin(st *store.Store, selectedDepartmentID string) (*dto.AdminDashboard, error)
	Lecturer(st *store.Store, lecturerID string) (*dto.LecturerDashboard, error)
	Student(st *store.Store, studentID string) (*dto.StudentDashboard, error)
	Roster(st *store.Store, moduleID string) (*dto.Roster, error)
}

// workspaceFromContext returns the session workspace or writes a 401.
func workspaceFromContext(c *gin.Context) (*service.Workspace, bool) {
	ws, ok := middleware.WorkspaceFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return ws, true
}

func respond(c *gin.Context, status int, data interface{}) {
	response.JSON(c, status, data, nil, middleware.ExtractMeta(c))
}

// loadRoster checks the session may see moduleID's roster, refreshes it
// from upstream and renders it.
func loadRoster(c *gin.Context, ws *service.Workspace, loader workspaceLoader, views dashboardBuilder, moduleID string) (*dto.Roster, error) {
	module, ok := ws.Store.Module(moduleID)
	if !ok {
		return nil, appErrors.ErrModuleNotFound
	}
	lecturerID, _ := module.Lecturer()
	if !ws.Can(authz.ActionViewRoster, authz.Context{ModuleLecturerID: lecturerID}) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this roster")
	}
	if _, err := loader.LoadRoster(c.Request.Context(), ws, moduleID); err != nil {
		return nil, err
	}
	return views.Roster(ws.Store, moduleID)
}
