package service

import (
	"context"
	"sync"

	"github.com/noah-isme/lms-portal/internal/models"
)

// fakeAPI is an in-memory LMSAPI. Calls are counted per method; errs
// injects a failure for a method name.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	user        models.User
	departments []models.Department
	lecturers   []models.User
	students    []models.User
	modules     []models.Module
	// enrolled maps student id to module ids.
	enrolled map[string][]string
	// roster maps module id to students.
	roster map[string][]models.User

	created       *models.Department
	createdModule *models.Module
	assigned      *models.Module
	confirmed     *models.Enrollment
	controlled    []models.ControlUserRequest

	// beforeReturn runs inside a call before it returns, to simulate
	// responses that arrive after the view moved on.
	beforeReturn func(method string)
}

func newFakeAPI(user models.User) *fakeAPI {
	return &fakeAPI{user: user, calls: map[string]int{}, errs: map[string]error{}, enrolled: map[string][]string{}, roster: map[string][]models.User{}}
}

func (f *fakeAPI) hit(method string) error {
	f.mu.Lock()
	f.calls[method]++
	err := f.errs[method]
	hook := f.beforeReturn
	f.mu.Unlock()
	if hook != nil {
		hook(method)
	}
	return err
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := f.hit("CurrentUser"); err != nil {
		return nil, err
	}
	// A real transport fails once its request context is done.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := f.user
	return &u, nil
}

func (f *fakeAPI) ControlUser(ctx context.Context, req models.ControlUserRequest) error {
	if err := f.hit("ControlUser"); err != nil {
		return err
	}
	f.mu.Lock()
	f.controlled = append(f.controlled, req)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Departments(ctx context.Context) ([]models.Department, error) {
	if err := f.hit("Departments"); err != nil {
		return nil, err
	}
	return f.departments, nil
}

func (f *fakeAPI) CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	if err := f.hit("CreateDepartment"); err != nil {
		return nil, err
	}
	if f.created != nil {
		d := *f.created
		return &d, nil
	}
	return &models.Department{ID: "dept-new", Name: req.Name}, nil
}

func (f *fakeAPI) Lecturers(ctx context.Context) ([]models.User, error) {
	if err := f.hit("Lecturers"); err != nil {
		return nil, err
	}
	return f.lecturers, nil
}

func (f *fakeAPI) LecturersByDepartment(ctx context.Context, departmentID string) ([]models.User, error) {
	if err := f.hit("LecturersByDepartment"); err != nil {
		return nil, err
	}
	return filterUsers(f.lecturers, departmentID), nil
}

func (f *fakeAPI) Lecturer(ctx context.Context, id string) (*models.User, error) {
	if err := f.hit("Lecturer"); err != nil {
		return nil, err
	}
	for _, u := range f.lecturers {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeAPI) Students(ctx context.Context) ([]models.User, error) {
	if err := f.hit("Students"); err != nil {
		return nil, err
	}
	return f.students, nil
}

func (f *fakeAPI) StudentsByDepartment(ctx context.Context, departmentID string) ([]models.User, error) {
	if err := f.hit("StudentsByDepartment"); err != nil {
		return nil, err
	}
	return filterUsers(f.students, departmentID), nil
}

func (f *fakeAPI) StudentsByModule(ctx context.Context, moduleID string) ([]models.User, error) {
	if err := f.hit("StudentsByModule"); err != nil {
		return nil, err
	}
	return f.roster[moduleID], nil
}

func (f *fakeAPI) ModulesByDepartment(ctx context.Context, departmentID string) ([]models.Module, error) {
	if err := f.hit("ModulesByDepartment"); err != nil {
		return nil, err
	}
	out := make([]models.Module, 0)
	for _, m := range f.modules {
		if m.DepartmentID == departmentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeAPI) ModulesByLecturer(ctx context.Context, lecturerID string) ([]models.Module, error) {
	if err := f.hit("ModulesByLecturer"); err != nil {
		return nil, err
	}
	out := make([]models.Module, 0)
	for _, m := range f.modules {
		if id, ok := m.Lecturer(); ok && id == lecturerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeAPI) ModulesByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	if err := f.hit("ModulesByStudent"); err != nil {
		return nil, err
	}
	out := make([]models.Module, 0)
	for _, id := range f.enrolled[studentID] {
		for _, m := range f.modules {
			if m.ID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error) {
	if err := f.hit("CreateModule"); err != nil {
		return nil, err
	}
	if f.createdModule != nil {
		m := *f.createdModule
		return &m, nil
	}
	return &models.Module{ID: "mod-new", Code: req.Code, Name: req.Name, DepartmentID: req.DepartmentID, Limit: req.Limit}, nil
}

func (f *fakeAPI) AssignLecturer(ctx context.Context, req models.AssignmentRequest) (*models.Module, error) {
	if err := f.hit("AssignLecturer"); err != nil {
		return nil, err
	}
	if f.assigned != nil {
		m := *f.assigned
		return &m, nil
	}
	return nil, nil
}

func (f *fakeAPI) Enroll(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error) {
	if err := f.hit("Enroll"); err != nil {
		return nil, err
	}
	if f.confirmed != nil {
		e := *f.confirmed
		return &e, nil
	}
	return nil, nil
}

func (f *fakeAPI) Unenroll(ctx context.Context, req models.EnrollmentRequest) error {
	return f.hit("Unenroll")
}

func filterUsers(users []models.User, departmentID string) []models.User {
	out := make([]models.User, 0)
	for _, u := range users {
		if u.InDepartment(departmentID) {
			out = append(out, u)
		}
	}
	return out
}

// workspaceFor builds a workspace over the seeded store for the given user id.
func workspaceFor(userID string, api *fakeAPI) *Workspace {
	st := seedStore()
	user, _ := st.User(userID)
	api.user = user
	return NewWorkspace("ws-"+userID, user, api, st)
}
