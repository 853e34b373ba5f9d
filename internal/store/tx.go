package store

import "github.com/noah-isme/lms-portal/internal/models"

// ReadTx exposes lookups while a lock is held by View or Update.
type ReadTx struct {
	s *Store
}

// Module looks up a module by id.
func (r *ReadTx) Module(id string) (models.Module, bool) {
	m, ok := r.s.modules[id]
	return m, ok
}

// User looks up a user by id.
func (r *ReadTx) User(id string) (models.User, bool) {
	u, ok := r.s.users[id]
	return u, ok
}

// Department looks up a department by id.
func (r *ReadTx) Department(id string) (models.Department, bool) {
	d, ok := r.s.departments[id]
	return d, ok
}

// Departments returns every department ordered by name.
func (r *ReadTx) Departments() []models.Department {
	return r.s.allDepartments()
}

// UsersByRole returns all users holding role ordered by name.
func (r *ReadTx) UsersByRole(role models.UserRole) []models.User {
	return r.s.usersWithRole(role)
}

// EnrollmentFor returns the enrollment linking studentID and moduleID.
func (r *ReadTx) EnrollmentFor(studentID, moduleID string) (models.Enrollment, bool) {
	return r.s.pair(studentID, moduleID)
}

// ModulesByDepartment returns the department's modules ordered by code.
func (r *ReadTx) ModulesByDepartment(departmentID string) []models.Module {
	return r.s.modulesIn(r.s.modulesByDept[departmentID])
}

// ModulesByLecturer returns the lecturer's modules ordered by code.
func (r *ReadTx) ModulesByLecturer(lecturerID string) []models.Module {
	return r.s.modulesIn(r.s.modulesByLecturer[lecturerID])
}

// EnrollmentsByStudent returns the student's enrollments oldest first.
func (r *ReadTx) EnrollmentsByStudent(studentID string) []models.Enrollment {
	return r.s.enrollmentsIn(r.s.enrollByStudent[studentID])
}

// EnrollmentsByModule returns the module's enrollments oldest first.
func (r *ReadTx) EnrollmentsByModule(moduleID string) []models.Enrollment {
	return r.s.enrollmentsIn(r.s.enrollByModule[moduleID])
}

// UsersByDepartment returns the department's users holding role ordered by name.
func (r *ReadTx) UsersByDepartment(departmentID string, role models.UserRole) []models.User {
	ids := r.s.usersByDept[departmentID]
	out := make([]models.User, 0, len(ids))
	for id := range ids {
		if u := r.s.users[id]; u.Role == role {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out
}

// Tx is a ReadTx that may also write. It is only valid inside Update.
type Tx struct {
	ReadTx
}

// PutModule inserts or replaces a module.
func (t *Tx) PutModule(m models.Module) {
	t.s.putModule(m)
}

// PutEnrollment inserts or replaces an enrollment.
func (t *Tx) PutEnrollment(e models.Enrollment) {
	t.s.putEnrollment(e)
}

// DeleteEnrollment removes an enrollment by id.
func (t *Tx) DeleteEnrollment(id string) bool {
	return t.s.dropEnrollment(id)
}
