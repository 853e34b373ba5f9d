package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/dto"
	"github.com/noah-isme/lms-portal/internal/service"
	"github.com/noah-isme/lms-portal/pkg/response"
)

type rosterExporter interface {
	Roster(roster *dto.Roster, format string) (*service.RosterFile, error)
}

// LecturerHandler serves the lecturer dashboard and rosters.
type LecturerHandler struct {
	loader   workspaceLoader
	views    dashboardBuilder
	exporter rosterExporter
}

// NewLecturerHandler constructs the handler.
func NewLecturerHandler(loader workspaceLoader, views dashboardBuilder, exporter rosterExporter) *LecturerHandler {
	return &LecturerHandler{loader: loader, views: views, exporter: exporter}
}

// Dashboard godoc
// @Summary Lecturer dashboard
// @Tags Lecturer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lecturer/dashboard [get]
func (h *LecturerHandler) Dashboard(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	if err := h.loader.LoadLecturer(c.Request.Context(), ws); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.views.Lecturer(ws.Store, ws.User().ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// Roster godoc
// @Summary Roster of a module the lecturer teaches
// @Tags Lecturer
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /lecturer/modules/{id}/roster [get]
func (h *LecturerHandler) Roster(c *gin.Context) {
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

// ExportRoster godoc
// @Summary Download a module roster
// @Tags Lecturer
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Module ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /lecturer/modules/{id}/roster/export [get]
func (h *LecturerHandler) ExportRoster(c *gin.Context) {
	ws, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	roster, err := loadRoster(c, ws, h.loader, h.views, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Roster(roster, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
