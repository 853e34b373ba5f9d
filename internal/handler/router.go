package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-portal/internal/middleware"
	"github.com/noah-isme/lms-portal/internal/models"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Session  *SessionHandler
	Auth     *AuthHandler
	Admin    *AdminHandler
	Lecturer *LecturerHandler
	Student  *StudentHandler
	Metrics  *MetricsHandler
}

// RegisterRoutes mounts health checks at the root and the API under prefix.
// session resolves the caller's workspace for authenticated routes.
func RegisterRoutes(r *gin.Engine, prefix string, session gin.HandlerFunc, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/auth/register", h.Auth.Register)

	authed := api.Group("")
	authed.Use(session)
	authed.GET("/session", h.Session.Get)
	authed.DELETE("/session", h.Session.Delete)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.POST("/departments", h.Admin.CreateDepartment)
	admin.POST("/modules", h.Admin.CreateModule)
	admin.PATCH("/modules/:id/lecturer", h.Admin.AssignLecturer)
	admin.GET("/modules/:id/roster", h.Admin.Roster)
	admin.DELETE("/modules/:id/students/:studentId", h.Admin.ForceUnenroll)
	admin.PATCH("/lecturers/:id/approve", h.Admin.ApproveLecturer)
	admin.PATCH("/users/:id/control", h.Admin.ControlUser)
	admin.GET("/audit", h.Admin.Audit)
	admin.GET("/metrics", h.Metrics.Summary)

	lecturer := authed.Group("/lecturer")
	lecturer.Use(middleware.RequireRoles(models.RoleLecturer))
	lecturer.GET("/dashboard", h.Lecturer.Dashboard)
	lecturer.GET("/modules/:id/roster", h.Lecturer.Roster)
	lecturer.GET("/modules/:id/roster/export", h.Lecturer.ExportRoster)

	student := authed.Group("/student")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	student.GET("/dashboard", h.Student.Dashboard)
	student.POST("/modules/:id/enrollment", h.Student.Enroll)
	student.DELETE("/modules/:id/enrollment", h.Student.Unenroll)
}
