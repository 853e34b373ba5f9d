package models

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

// UserRole represents the available roles of the LMS.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleLecturer UserRole = "LECTURER"
	RoleStudent  UserRole = "STUDENT"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// ParseRole normalises upstream role spellings ("lecturer", "Lecturer").
func ParseRole(raw string) UserRole {
	return UserRole(strings.ToUpper(strings.TrimSpace(raw)))
}

// User is an LMS account as reported by the upstream API.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	Role         UserRole    `json:"role"`
	DepartmentID null.String `json:"departmentId"`
	IsActive     bool        `json:"isActive"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Department returns the department id and whether one is set.
func (u User) Department() (string, bool) {
	return u.DepartmentID.String, u.DepartmentID.Valid && u.DepartmentID.String != ""
}

// InDepartment reports whether the user belongs to departmentID.
func (u User) InDepartment(departmentID string) bool {
	id, ok := u.Department()
	return ok && id == departmentID
}

// InitialActive is the activation state of a freshly registered account:
// lecturers wait for admin approval, everyone else starts active.
func InitialActive(role UserRole) bool {
	return role != RoleLecturer
}

// RegistrationRequest is the self-service sign-up payload. Admin accounts
// are provisioned upstream and cannot be self-registered.
type RegistrationRequest struct {
	Username     string   `json:"username" validate:"required,min=3,max=64"`
	Password     string   `json:"password" validate:"required,min=6"`
	FirstName    string   `json:"firstName" validate:"required"`
	LastName     string   `json:"lastName" validate:"required"`
	Email        string   `json:"email" validate:"required,email"`
	Role         UserRole `json:"role" validate:"required,oneof=LECTURER STUDENT"`
	DepartmentID string   `json:"departmentId" validate:"required"`
}

// ControlAction toggles an account on or off.
type ControlAction string

const (
	ControlBan   ControlAction = "BAN"
	ControlUnban ControlAction = "UNBAN"
)

// ControlUserRequest is the upstream body for PATCH /auth/control. Role is
// lower-case on the wire ("student" or "lecturer").
type ControlUserRequest struct {
	ID      string        `json:"id" validate:"required"`
	Control ControlAction `json:"control" validate:"required,oneof=BAN UNBAN"`
	Role    string        `json:"role" validate:"required,oneof=student lecturer"`
}

// ControlRole maps a role to the upstream control spelling.
func ControlRole(role UserRole) string {
	return strings.ToLower(string(role))
}
