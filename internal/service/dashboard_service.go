package service

import (
	"github.com/noah-isme/lms-portal/internal/dto"
	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/store"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// DashboardService derives per-role views from a workspace store. It never
// talks to the network.
type DashboardService struct {
	requireLecturer bool
}

// NewDashboardService constructs the service. requireLecturer mirrors the
// enrollment policy so unassigned modules are hidden from students only
// when they cannot be joined.
func NewDashboardService(requireLecturer bool) *DashboardService {
	return &DashboardService{requireLecturer: requireLecturer}
}

// Admin builds the admin dashboard. selectedDepartmentID may be empty.
func (s *DashboardService) Admin(st *store.Store, selectedDepartmentID string) (*dto.AdminDashboard, error) {
	out := &dto.AdminDashboard{
		Departments:      make([]dto.DepartmentSummary, 0),
		PendingLecturers: make([]dto.UserSummary, 0),
	}

	var selected *dto.AdminDepartmentView
	st.View(func(tx *store.ReadTx) {
		for _, d := range tx.Departments() {
			out.Departments = append(out.Departments, summarise(d, tx.ModulesByDepartment(d.ID)))
		}
		for _, u := range tx.UsersByRole(models.RoleLecturer) {
			if !u.IsActive {
				out.PendingLecturers = append(out.PendingLecturers, Summary(u))
			}
		}
		if selectedDepartmentID == "" {
			return
		}
		dept, ok := tx.Department(selectedDepartmentID)
		if !ok {
			return
		}
		modules := tx.ModulesByDepartment(dept.ID)
		selected = &dto.AdminDepartmentView{
			Department: summarise(dept, modules),
			Modules:    s.cards(tx, modules, ""),
			Lecturers:  summaries(tx.UsersByDepartment(dept.ID, models.RoleLecturer)),
			Students:   summaries(tx.UsersByDepartment(dept.ID, models.RoleStudent)),
		}
	})
	if selectedDepartmentID != "" && selected == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
	}
	out.Selected = selected
	return out, nil
}

// Lecturer builds the dashboard of lecturerID.
func (s *DashboardService) Lecturer(st *store.Store, lecturerID string) (*dto.LecturerDashboard, error) {
	lecturer, ok := st.User(lecturerID)
	if !ok || lecturer.Role != models.RoleLecturer {
		return nil, appErrors.ErrLecturerNotFound
	}
	out := &dto.LecturerDashboard{Lecturer: Summary(lecturer), Modules: make([]dto.LecturerModule, 0), Peers: make([]dto.UserSummary, 0)}

	st.View(func(tx *store.ReadTx) {
		for _, m := range tx.ModulesByLecturer(lecturerID) {
			out.Modules = append(out.Modules, dto.LecturerModule{
				ModuleCard:   s.card(tx, m, ""),
				StudentCount: m.EnrolledCount,
			})
		}
		deptID, hasDept := lecturer.Department()
		if !hasDept {
			return
		}
		if d, ok := tx.Department(deptID); ok {
			out.Department = &d
		}
		for _, peer := range tx.UsersByDepartment(deptID, models.RoleLecturer) {
			if peer.ID != lecturerID {
				out.Peers = append(out.Peers, Summary(peer))
			}
		}
	})
	return out, nil
}

// Student builds the dashboard of studentID: enrolled modules, and the
// department modules still open to them.
func (s *DashboardService) Student(st *store.Store, studentID string) (*dto.StudentDashboard, error) {
	student, ok := st.User(studentID)
	if !ok || student.Role != models.RoleStudent {
		return nil, appErrors.ErrStudentNotFound
	}
	out := &dto.StudentDashboard{Student: Summary(student), Enrolled: make([]dto.ModuleCard, 0), Available: make([]dto.ModuleCard, 0)}

	st.View(func(tx *store.ReadTx) {
		enrolled := make(map[string]struct{})
		for _, e := range tx.EnrollmentsByStudent(studentID) {
			m, ok := tx.Module(e.ModuleID)
			if !ok {
				continue
			}
			enrolled[m.ID] = struct{}{}
			out.Enrolled = append(out.Enrolled, s.card(tx, m, studentID))
		}

		deptID, hasDept := student.Department()
		if !hasDept {
			return
		}
		if d, ok := tx.Department(deptID); ok {
			out.Department = &d
		}
		for _, m := range tx.ModulesByDepartment(deptID) {
			if _, taken := enrolled[m.ID]; taken {
				continue
			}
			if s.requireLecturer && !m.HasLecturer() {
				continue
			}
			out.Available = append(out.Available, s.card(tx, m, studentID))
		}
	})
	return out, nil
}

// Roster lists the students enrolled in moduleID, oldest enrollment first.
func (s *DashboardService) Roster(st *store.Store, moduleID string) (*dto.Roster, error) {
	var (
		out   *dto.Roster
		found bool
	)
	st.View(func(tx *store.ReadTx) {
		m, ok := tx.Module(moduleID)
		if !ok {
			return
		}
		found = true
		out = &dto.Roster{Module: s.card(tx, m, ""), Students: make([]dto.RosterEntry, 0)}
		for _, e := range tx.EnrollmentsByModule(moduleID) {
			u, ok := tx.User(e.StudentID)
			if !ok {
				u = models.User{ID: e.StudentID, Role: models.RoleStudent}
			}
			out.Students = append(out.Students, dto.RosterEntry{UserSummary: Summary(u), EnrollmentID: e.ID, EnrolledAt: e.EnrolledAt})
		}
	})
	if !found {
		return nil, appErrors.ErrModuleNotFound
	}
	return out, nil
}

func (s *DashboardService) cards(tx *store.ReadTx, modules []models.Module, studentID string) []dto.ModuleCard {
	out := make([]dto.ModuleCard, 0, len(modules))
	for _, m := range modules {
		out = append(out, s.card(tx, m, studentID))
	}
	return out
}

// card renders m. When studentID is set, enrolled and enrollable are
// computed for that student.
func (s *DashboardService) card(tx *store.ReadTx, m models.Module, studentID string) dto.ModuleCard {
	c := dto.ModuleCard{
		ID:            m.ID,
		Code:          m.Code,
		Name:          m.Name,
		DepartmentID:  m.DepartmentID,
		LecturerID:    m.LecturerID,
		Limit:         m.Limit,
		EnrolledCount: m.EnrolledCount,
		Capacity:      m.Capacity(),
		FillPercent:   m.FillPercent(),
		Full:          m.IsFull(),
		Available:     m.HasLecturer(),
	}
	if id, ok := m.Lecturer(); ok {
		if u, ok := tx.User(id); ok {
			c.LecturerName = u.FullName()
		}
	}
	if studentID != "" {
		_, c.Enrolled = tx.EnrollmentFor(studentID, m.ID)
	}
	c.Enrollable = !c.Full && !c.Enrolled && (c.Available || !s.requireLecturer)
	return c
}

func summarise(d models.Department, modules []models.Module) dto.DepartmentSummary {
	out := dto.DepartmentSummary{Department: d, TotalModules: len(modules)}
	for _, m := range modules {
		if m.IsFull() {
			out.FullModules++
		}
		if !m.HasLecturer() {
			out.UnassignedModules++
		}
	}
	return out
}

// Summary projects a user for API responses.
func Summary(u models.User) dto.UserSummary {
	return dto.UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName(),
		Email:        u.Email,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		IsActive:     u.IsActive,
	}
}

func summaries(users []models.User) []dto.UserSummary {
	out := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, Summary(u))
	}
	return out
}
