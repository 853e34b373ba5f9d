// Package store holds the in-memory entity graph of one workspace:
// departments, users, modules and enrollments keyed by id, plus the foreign
// key indexes the dashboards and the enrollment engine read from.
//
// Every lookup returns a copy. Mutations that must land together (an
// enrollment record and its module count) go through Update.
package store

import (
	"sort"
	"sync"

	"github.com/noah-isme/lms-portal/internal/models"
)

type idSet map[string]struct{}

func (s idSet) add(id string)    { s[id] = struct{}{} }
func (s idSet) remove(id string) { delete(s, id) }

// Store is the canonical entity collection for one session.
type Store struct {
	mu sync.RWMutex

	departments map[string]models.Department
	users       map[string]models.User
	modules     map[string]models.Module
	enrollments map[string]models.Enrollment

	modulesByDept     map[string]idSet
	modulesByLecturer map[string]idSet
	usersByDept       map[string]idSet
	enrollByStudent   map[string]idSet
	enrollByModule    map[string]idSet
	enrollByPair      map[string]string

	// onClamp is told about module payloads whose counts broke the bounds.
	onClamp func(before models.Module)
}

// Option configures a Store.
type Option func(*Store)

// WithClampHook registers a callback invoked when an upserted module had an
// enrolledCount outside [0, limit] and was clamped.
func WithClampHook(fn func(before models.Module)) Option {
	return func(s *Store) { s.onClamp = fn }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		departments:       make(map[string]models.Department),
		users:             make(map[string]models.User),
		modules:           make(map[string]models.Module),
		enrollments:       make(map[string]models.Enrollment),
		modulesByDept:     make(map[string]idSet),
		modulesByLecturer: make(map[string]idSet),
		usersByDept:       make(map[string]idSet),
		enrollByStudent:   make(map[string]idSet),
		enrollByModule:    make(map[string]idSet),
		enrollByPair:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update runs fn with exclusive access to the store.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{ReadTx{s: s}})
}

// View runs fn with shared read access, for multi-step reads that must see
// one consistent snapshot.
func (s *Store) View(fn func(tx *ReadTx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&ReadTx{s: s})
}

// UpsertDepartment inserts or replaces a department by id.
func (s *Store) UpsertDepartment(d models.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[d.ID] = d
}

// UpsertUser inserts or replaces a user by id.
func (s *Store) UpsertUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putUser(u)
}

// UpsertModule inserts or replaces a module by id.
func (s *Store) UpsertModule(m models.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putModule(m)
}

// UpsertEnrollment inserts or replaces an enrollment. A record for a pair
// that already has one under another id replaces it.
func (s *Store) UpsertEnrollment(e models.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putEnrollment(e)
}

// RemoveEnrollment deletes an enrollment by id. It reports whether one existed.
func (s *Store) RemoveEnrollment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropEnrollment(id)
}

// Department looks up a department by id.
func (s *Store) Department(id string) (models.Department, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	return d, ok
}

// Departments returns every department ordered by name.
func (s *Store) Departments() []models.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allDepartments()
}

// User looks up a user by id.
func (s *Store) User(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// UsersByRole returns all users holding role ordered by name.
func (s *Store) UsersByRole(role models.UserRole) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersWithRole(role)
}

// UsersByDepartment returns the department's users holding role ordered by name.
func (s *Store) UsersByDepartment(departmentID string, role models.UserRole) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&ReadTx{s: s}).UsersByDepartment(departmentID, role)
}

// Module looks up a module by id.
func (s *Store) Module(id string) (models.Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[id]
	return m, ok
}

// ModulesByDepartment returns the department's modules ordered by code.
func (s *Store) ModulesByDepartment(departmentID string) []models.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modulesIn(s.modulesByDept[departmentID])
}

// ModulesByLecturer returns the modules assigned to lecturerID ordered by code.
func (s *Store) ModulesByLecturer(lecturerID string) []models.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modulesIn(s.modulesByLecturer[lecturerID])
}

// Enrollment looks up an enrollment by id.
func (s *Store) Enrollment(id string) (models.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[id]
	return e, ok
}

// EnrollmentFor returns the enrollment linking studentID and moduleID.
func (s *Store) EnrollmentFor(studentID, moduleID string) (models.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair(studentID, moduleID)
}

// EnrollmentsByStudent returns the student's enrollments oldest first.
func (s *Store) EnrollmentsByStudent(studentID string) []models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrollmentsIn(s.enrollByStudent[studentID])
}

// EnrollmentsByModule returns the module's enrollments oldest first.
func (s *Store) EnrollmentsByModule(moduleID string) []models.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrollmentsIn(s.enrollByModule[moduleID])
}

// ReplaceStudentEnrollments makes the student's enrollment set match
// moduleIDs. Existing records keep their id and timestamp; new pairs get an
// inferred id. Module counts are not touched: the server's count is
// authoritative and arrives with the module payloads.
func (s *Store) ReplaceStudentEnrollments(studentID string, moduleIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(idSet, len(moduleIDs))
	for _, id := range moduleIDs {
		want.add(id)
	}
	for id := range s.enrollByStudent[studentID] {
		if _, keep := want[s.enrollments[id].ModuleID]; !keep {
			s.dropEnrollment(id)
		}
	}
	for moduleID := range want {
		if _, ok := s.pair(studentID, moduleID); ok {
			continue
		}
		s.putEnrollment(models.Enrollment{
			ID:        models.InferredEnrollmentID(studentID, moduleID),
			StudentID: studentID,
			ModuleID:  moduleID,
		})
	}
}

// ReplaceModuleRoster makes the module's enrollment set match studentIDs.
func (s *Store) ReplaceModuleRoster(moduleID string, studentIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(idSet, len(studentIDs))
	for _, id := range studentIDs {
		want.add(id)
	}
	for id := range s.enrollByModule[moduleID] {
		if _, keep := want[s.enrollments[id].StudentID]; !keep {
			s.dropEnrollment(id)
		}
	}
	for studentID := range want {
		if _, ok := s.pair(studentID, moduleID); ok {
			continue
		}
		s.putEnrollment(models.Enrollment{
			ID:        models.InferredEnrollmentID(studentID, moduleID),
			StudentID: studentID,
			ModuleID:  moduleID,
		})
	}
}

func (s *Store) usersWithRole(role models.UserRole) []models.User {
	out := make([]models.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out
}

func (s *Store) allDepartments() []models.Department {
	out := make([]models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Store) putUser(u models.User) {
	if prev, ok := s.users[u.ID]; ok {
		if dept, has := prev.Department(); has {
			s.usersByDept[dept].remove(u.ID)
		}
	}
	s.users[u.ID] = u
	if dept, has := u.Department(); has {
		index(s.usersByDept, dept).add(u.ID)
	}
}

func (s *Store) putModule(m models.Module) {
	if m.Limit < 0 {
		m.Limit = 0
	}
	if m.EnrolledCount < 0 || m.EnrolledCount > m.Limit {
		before := m
		if m.EnrolledCount < 0 {
			m.EnrolledCount = 0
		} else {
			m.EnrolledCount = m.Limit
		}
		if s.onClamp != nil {
			s.onClamp(before)
		}
	}
	if prev, ok := s.modules[m.ID]; ok {
		s.modulesByDept[prev.DepartmentID].remove(m.ID)
		if lect, has := prev.Lecturer(); has {
			s.modulesByLecturer[lect].remove(m.ID)
		}
	}
	s.modules[m.ID] = m
	index(s.modulesByDept, m.DepartmentID).add(m.ID)
	if lect, has := m.Lecturer(); has {
		index(s.modulesByLecturer, lect).add(m.ID)
	}
}

func (s *Store) putEnrollment(e models.Enrollment) {
	key := models.PairKey(e.StudentID, e.ModuleID)
	if existing, ok := s.enrollByPair[key]; ok && existing != e.ID {
		s.dropEnrollment(existing)
	}
	if _, ok := s.enrollments[e.ID]; ok {
		s.dropEnrollment(e.ID)
	}
	s.enrollments[e.ID] = e
	s.enrollByPair[key] = e.ID
	index(s.enrollByStudent, e.StudentID).add(e.ID)
	index(s.enrollByModule, e.ModuleID).add(e.ID)
}

func (s *Store) dropEnrollment(id string) bool {
	e, ok := s.enrollments[id]
	if !ok {
		return false
	}
	delete(s.enrollments, id)
	delete(s.enrollByPair, models.PairKey(e.StudentID, e.ModuleID))
	s.enrollByStudent[e.StudentID].remove(id)
	s.enrollByModule[e.ModuleID].remove(id)
	return true
}

func (s *Store) pair(studentID, moduleID string) (models.Enrollment, bool) {
	id, ok := s.enrollByPair[models.PairKey(studentID, moduleID)]
	if !ok {
		return models.Enrollment{}, false
	}
	return s.enrollments[id], true
}

func (s *Store) modulesIn(ids idSet) []models.Module {
	out := make([]models.Module, 0, len(ids))
	for id := range ids {
		out = append(out, s.modules[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code == out[j].Code {
			return out[i].ID < out[j].ID
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (s *Store) enrollmentsIn(ids idSet) []models.Enrollment {
	out := make([]models.Enrollment, 0, len(ids))
	for id := range ids {
		out = append(out, s.enrollments[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].EnrolledAt.Before(out[j].EnrolledAt)
	})
	return out
}

func index(m map[string]idSet, key string) idSet {
	set, ok := m[key]
	if !ok {
		set = make(idSet)
		m[key] = set
	}
	return set
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i].FullName(), users[j].FullName()
		if a == b {
			return users[i].ID < users[j].ID
		}
		return a < b
	})
}
