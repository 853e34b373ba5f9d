package dto

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/lms-portal/internal/models"
)

// ModuleCard is a module as rendered on any dashboard.
type ModuleCard struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	DepartmentID  string      `json:"departmentId"`
	LecturerID    null.String `json:"lecturerId"`
	LecturerName  string      `json:"lecturerName,omitempty"`
	Limit         int         `json:"limit"`
	EnrolledCount int         `json:"enrolledCount"`
	// Capacity is the number of seats left.
	Capacity    int     `json:"capacity"`
	FillPercent float64 `json:"fillPercent"`
	Full        bool    `json:"full"`
	// Available is false while no lecturer is assigned.
	Available  bool `json:"available"`
	Enrollable bool `json:"enrollable"`
	Enrolled   bool `json:"enrolled"`
}

// UserSummary is the public projection of an account.
type UserSummary struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	FullName     string          `json:"fullName"`
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	DepartmentID null.String     `json:"departmentId"`
	IsActive     bool            `json:"isActive"`
}

// DepartmentSummary carries the module counters shown on a department.
type DepartmentSummary struct {
	models.Department
	TotalModules      int `json:"totalModules"`
	FullModules       int `json:"fullModules"`
	UnassignedModules int `json:"unassignedModules"`
}

// AdminDepartmentView is the selected department on the admin dashboard.
type AdminDepartmentView struct {
	Department DepartmentSummary `json:"department"`
	Modules    []ModuleCard      `json:"modules"`
	Lecturers  []UserSummary     `json:"lecturers"`
	Students   []UserSummary     `json:"students"`
}

// AdminDashboard is the admin landing view.
type AdminDashboard struct {
	Departments      []DepartmentSummary  `json:"departments"`
	Selected         *AdminDepartmentView `json:"selected,omitempty"`
	PendingLecturers []UserSummary        `json:"pendingLecturers"`
}

// LecturerModule is a module taught by the lecturer.
type LecturerModule struct {
	ModuleCard
	StudentCount int `json:"studentCount"`
}

// LecturerDashboard is the lecturer landing view.
type LecturerDashboard struct {
	Lecturer   UserSummary        `json:"lecturer"`
	Department *models.Department `json:"department,omitempty"`
	Modules    []LecturerModule   `json:"modules"`
	Peers      []UserSummary      `json:"peers"`
}

// StudentDashboard is the student landing view.
type StudentDashboard struct {
	Student    UserSummary        `json:"student"`
	Department *models.Department `json:"department,omitempty"`
	Enrolled   []ModuleCard       `json:"enrolled"`
	Available  []ModuleCard       `json:"available"`
}

// RosterEntry is one enrolled student.
type RosterEntry struct {
	UserSummary
	EnrollmentID string    `json:"enrollmentId"`
	EnrolledAt   time.Time `json:"enrolledAt"`
}

// Roster lists a module's students.
type Roster struct {
	Module   ModuleCard    `json:"module"`
	Students []RosterEntry `json:"students"`
}
