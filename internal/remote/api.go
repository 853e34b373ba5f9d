package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/noah-isme/lms-portal/internal/models"
)

// API issues requests on behalf of one bearer token.
type API struct {
	c     *Client
	token string
}

// Token returns the bearer token the API is bound to.
func (a *API) Token() string {
	return a.token
}

// CurrentUser loads the account behind the token.
func (a *API) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.get(ctx, "/auth/getuser", "/auth/getuser", &u); err != nil {
		return nil, err
	}
	normaliseUser(&u)
	return &u, nil
}

// ControlUser bans or unbans an account.
func (a *API) ControlUser(ctx context.Context, req models.ControlUserRequest) error {
	return a.c.do(ctx, a.token, http.MethodPatch, "/auth/control", "/auth/control", req, nil)
}

// Departments lists every department.
func (a *API) Departments(ctx context.Context) ([]models.Department, error) {
	var out []models.Department
	if err := a.get(ctx, "/api/department/all", "/api/department/all", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDepartment creates a department and returns it with its id.
func (a *API) CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	var d models.Department
	if err := a.c.do(ctx, a.token, http.MethodPost, "/api/department/create", "/api/department/create", req, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Lecturers lists every lecturer.
func (a *API) Lecturers(ctx context.Context) ([]models.User, error) {
	return a.users(ctx, "/api/lecturer/all", "/api/lecturer/all")
}

// LecturersByDepartment lists a department's lecturers.
func (a *API) LecturersByDepartment(ctx context.Context, departmentID string) ([]models.User, error) {
	return a.users(ctx, "/api/lecturer/departmentId/"+url.PathEscape(departmentID), "/api/lecturer/departmentId/{id}")
}

// Lecturer loads one lecturer.
func (a *API) Lecturer(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := a.get(ctx, "/api/lecturer/id/"+url.PathEscape(id), "/api/lecturer/id/{id}", &u); err != nil {
		return nil, err
	}
	normaliseUser(&u)
	return &u, nil
}

// Students lists every student.
func (a *API) Students(ctx context.Context) ([]models.User, error) {
	return a.users(ctx, "/api/student/all", "/api/student/all")
}

// StudentsByDepartment lists a department's students.
func (a *API) StudentsByDepartment(ctx context.Context, departmentID string) ([]models.User, error) {
	return a.users(ctx, "/api/student/departmentId/"+url.PathEscape(departmentID), "/api/student/departmentId/{id}")
}

// StudentsByModule lists the students enrolled in a module.
func (a *API) StudentsByModule(ctx context.Context, moduleID string) ([]models.User, error) {
	return a.users(ctx, "/api/student/moduleId/"+url.PathEscape(moduleID), "/api/student/moduleId/{id}")
}

// ModulesByDepartment lists a department's modules.
func (a *API) ModulesByDepartment(ctx context.Context, departmentID string) ([]models.Module, error) {
	return a.modules(ctx, "/api/module/departmentId/"+url.PathEscape(departmentID), "/api/module/departmentId/{id}")
}

// ModulesByLecturer lists the modules a lecturer teaches.
func (a *API) ModulesByLecturer(ctx context.Context, lecturerID string) ([]models.Module, error) {
	return a.modules(ctx, "/api/module/lecturerId/"+url.PathEscape(lecturerID), "/api/module/lecturerId/{id}")
}

// ModulesByStudent lists the modules a student is enrolled in.
func (a *API) ModulesByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	return a.modules(ctx, "/api/module/studentId/"+url.PathEscape(studentID), "/api/module/studentId/{id}")
}

// CreateModule creates a module.
func (a *API) CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error) {
	var m models.Module
	if err := a.c.do(ctx, a.token, http.MethodPost, "/api/module/create", "/api/module/create", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AssignLecturer sets a module's lecturer. The returned module is nil when
// the server answers without a body.
func (a *API) AssignLecturer(ctx context.Context, req models.AssignmentRequest) (*models.Module, error) {
	var m models.Module
	err := a.c.do(ctx, a.token, http.MethodPatch, "/api/module/assignLecturer", "/api/module/assignLecturer", req, &m)
	if errors.Is(err, errEmptyBody) || (err == nil && m.ID == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Enroll enrolls a student. The returned enrollment is nil when the server
// does not echo one back.
func (a *API) Enroll(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error) {
	var e models.Enrollment
	err := a.c.do(ctx, a.token, http.MethodPost, "/api/enrollment/enroll", "/api/enrollment/enroll", req, &e)
	if errors.Is(err, errEmptyBody) || (err == nil && e.ID == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Unenroll removes a student from a module.
func (a *API) Unenroll(ctx context.Context, req models.EnrollmentRequest) error {
	return a.c.do(ctx, a.token, http.MethodDelete, "/api/enrollment/unenroll", "/api/enrollment/unenroll", req, nil)
}

func (a *API) get(ctx context.Context, path, endpoint string, dest interface{}) error {
	err := a.c.do(ctx, a.token, http.MethodGet, path, endpoint, nil, dest)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

func (a *API) users(ctx context.Context, path, endpoint string) ([]models.User, error) {
	var out []models.User
	if err := a.get(ctx, path, endpoint, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normaliseUser(&out[i])
	}
	return out, nil
}

func (a *API) modules(ctx context.Context, path, endpoint string) ([]models.Module, error) {
	var out []models.Module
	if err := a.get(ctx, path, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normaliseUser(u *models.User) {
	u.Role = models.ParseRole(string(u.Role))
}
