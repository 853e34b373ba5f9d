package dto

import "github.com/noah-isme/lms-portal/internal/models"

// AssignLecturerRequest is the body of PATCH /admin/modules/:id/lecturer.
type AssignLecturerRequest struct {
	LecturerID string `json:"lecturerId" binding:"required"`
}

// ControlUserRequest is the body of PATCH /admin/users/:id/control.
type ControlUserRequest struct {
	Control models.ControlAction `json:"control" binding:"required,oneof=BAN UNBAN"`
}

// SessionView describes the caller's own session.
type SessionView struct {
	User      UserSummary `json:"user"`
	ExpiresAt string      `json:"expiresAt"`
}
