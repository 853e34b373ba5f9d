package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type studentIntents interface {
	Enroll(ctx context.Context, ws *service.Workspace, moduleID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, ws *service.Workspace, moduleID string) error
}

// StudentHandler serves the student dashboard and enrollment intents.
type StudentHandler struct {
	loader  workspaceLoader
	views   dashboardBuilder
	intents studentIntents
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(loader workspaceLoader, views dashboardBuilder, intents studentIntents) *StudentHandler {
	return &StudentHandler{loader: loader, views: views, intents: intents}
}

// Dashboard godoc
// @Summary Student dashboard
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	if err := h.loader.LoadStudent(c.Request.Context(), ws); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.views.Student(ws.Store, ws.User().ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// Enroll godoc
// @Summary Enroll in a module
// @Tags Student
// @Produce json
// @Param id path string true "Module ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/modules/{id}/enrollment [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	enrollment, err := h.intents.Enroll(c.Request.Context(), ws, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Leave a module
// @Tags Student
// @Param id path string true "Module ID"
// @Success 204
// @Router /student/modules/{id}/enrollment [delete]
func (h *StudentHandler) Unenroll(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	if err := h.intents.Unenroll(c.Request.Context(), ws, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
