package models

import "github.com/volatiletech/null/v8"

// Module is a course offering with an enrollment cap, scoped to one department.
type Module struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	DepartmentID  string      `json:"departmentId"`
	LecturerID    null.String `json:"lecturerId"`
	Limit         int         `json:"limit"`
	EnrolledCount int         `json:"enrolledCount"`
}

// Lecturer returns the assigned lecturer id, if any.
func (m Module) Lecturer() (string, bool) {
	return m.LecturerID.String, m.LecturerID.Valid && m.LecturerID.String != ""
}

// HasLecturer reports whether a lecturer is assigned.
func (m Module) HasLecturer() bool {
	_, ok := m.Lecturer()
	return ok
}

// IsFull reports whether no seats remain.
func (m Module) IsFull() bool {
	return m.EnrolledCount >= m.Limit
}

// Capacity is the number of open seats, never negative.
func (m Module) Capacity() int {
	if c := m.Limit - m.EnrolledCount; c > 0 {
		return c
	}
	return 0
}

// FillPercent is the share of seats taken, capped at 100.
func (m Module) FillPercent() float64 {
	if m.Limit <= 0 {
		return 100
	}
	p := float64(m.EnrolledCount) / float64(m.Limit) * 100
	if p > 100 {
		return 100
	}
	return p
}

// CreateModuleRequest is the payload for POST /api/module/create. AdminID is
// filled from the acting session, never from the client body.
type CreateModuleRequest struct {
	Code         string `json:"code" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=200"`
	Limit        int    `json:"limit" validate:"required,min=1,max=10000"`
	DepartmentID string `json:"departmentId" validate:"required"`
	AdminID      string `json:"adminId"`
}

// AssignmentRequest is the payload for PATCH /api/module/assignLecturer.
type AssignmentRequest struct {
	ModuleID   string `json:"moduleId" validate:"required"`
	LecturerID string `json:"lecturerId" validate:"required"`
}
