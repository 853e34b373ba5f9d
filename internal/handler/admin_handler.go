package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/dto"
	"github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/service"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type adminIntents interface {
	CreateDepartment(ctx context.Context, ws *service.Workspace, req models.CreateDepartmentRequest) (*models.Department, error)
	CreateModule(ctx context.Context, ws *service.Workspace, req models.CreateModuleRequest) (*models.Module, error)
	AssignLecturer(ctx context.Context, ws *service.Workspace, req models.AssignmentRequest) (*models.Module, error)
	ApproveLecturer(ctx context.Context, ws *service.Workspace, lecturerID string) (*models.User, error)
	ControlUser(ctx context.Context, ws *service.Workspace, userID string, action models.ControlAction) (*models.User, error)
	ForceUnenroll(ctx context.Context, ws *service.Workspace, moduleID, studentID string) error
}

type auditLister interface {
	List(ctx context.Context, filter models.IntentAuditFilter) ([]models.IntentAudit, *models.Pagination, error)
}

// AdminHandler serves the admin dashboard and admin intents.
type AdminHandler struct {
	loader  workspaceLoader
	views   dashboardBuilder
	intents adminIntents
	audit   auditLister
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(loader workspaceLoader, views dashboardBuilder, intents adminIntents, audit auditLister) *AdminHandler {
	return &AdminHandler{loader: loader, views: views, intents: intents, audit: audit}
}

// Dashboard godoc
// @Summary Admin dashboard
// @Tags Admin
// @Produce json
// @Param departmentId query string false "Selected department"
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	departmentID := strings.TrimSpace(c.Query("departmentId"))
	if err := h.loader.LoadAdmin(c.Request.Context(), ws, departmentID); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.views.Admin(ws.Store, departmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if departmentID != "" {
		middleware.SetMeta(c, "department_id", departmentID)
	}
	respond(c, http.StatusOK, view)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateDepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Router /admin/departments [post]
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req models.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	dept, err := h.intents.CreateDepartment(c.Request.Context(), ws, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dept)
}

// CreateModule godoc
// @Summary Create module
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateModuleRequest true "Module"
// @Success 201 {object} response.Envelope
// @Router /admin/modules [post]
func (h *AdminHandler) CreateModule(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req models.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid module payload"))
		return
	}
	module, err := h.intents.CreateModule(c.Request.Context(), ws, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// AssignLecturer godoc
// @Summary Assign or reassign a module lecturer
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body dto.AssignLecturerRequest true "Lecturer"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id}/lecturer [patch]
func (h *AdminHandler) AssignLecturer(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "lecturerId is required"))
		return
	}
	module, err := h.intents.AssignLecturer(c.Request.Context(), ws, models.AssignmentRequest{ModuleID: c.Param("id"), LecturerID: req.LecturerID})
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, module)
}

// Roster godoc
// @Summary Module roster
// @Tags Admin
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id}/roster [get]
func (h *AdminHandler) Roster(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	roster, err := loadRoster(c, ws, h.loader, h.views, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, roster)
}

// ForceUnenroll godoc
// @Summary Remove a student from a module
// @Description Only the one enrollment is removed; the student account is untouched.
// @Tags Admin
// @Param id path string true "Module ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /admin/modules/{id}/students/{studentId} [delete]
func (h *AdminHandler) ForceUnenroll(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	moduleID, studentID := c.Param("id"), c.Param("studentId")
	if _, known := ws.Store.EnrollmentFor(studentID, moduleID); !known {
		if _, err := h.loader.LoadRoster(c.Request.Context(), ws, moduleID); err != nil {
			response.Error(c, err)
			return
		}
	}
	if err := h.intents.ForceUnenroll(c.Request.Context(), ws, moduleID, studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ApproveLecturer godoc
// @Summary Approve a pending lecturer
// @Tags Admin
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /admin/lecturers/{id}/approve [patch]
func (h *AdminHandler) ApproveLecturer(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	lecturer, err := h.intents.ApproveLecturer(c.Request.Context(), ws, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, service.Summary(*lecturer))
}

// ControlUser godoc
// @Summary Ban or unban a student or lecturer
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.ControlUserRequest true "Control"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/control [patch]
func (h *AdminHandler) ControlUser(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req dto.ControlUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "control must be BAN or UNBAN"))
		return
	}
	user, err := h.intents.ControlUser(c.Request.Context(), ws, c.Param("id"), req.Control)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, service.Summary(*user))
}

// Audit godoc
// @Summary Intent audit trail
// @Tags Admin
// @Produce json
// @Param actorId query string false "Actor"
// @Param intent query string false "Intent"
// @Param outcome query string false "Outcome"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/audit [get]
func (h *AdminHandler) Audit(c *gin.Context) {
	filter := models.IntentAuditFilter{
		ActorID: strings.TrimSpace(c.Query("actorId")),
		Intent:  strings.ToUpper(strings.TrimSpace(c.Query("intent"))),
		Outcome: strings.ToUpper(strings.TrimSpace(c.Query("outcome"))),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "50")); err == nil {
		filter.PageSize = size
	}
	entries, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
