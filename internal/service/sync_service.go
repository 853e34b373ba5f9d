package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

const departmentCatalogKey = "lms:catalog:departments"

// View keys tracked per workspace.
const (
	viewAdmin    = "admin"
	viewLecturer = "lecturer"
	viewStudent  = "student"
	viewRoster   = "roster:"
)

// SyncService loads upstream data into workspace stores. Loads are guarded
// by view tickets so a response that arrives after its view moved on is
// dropped instead of applied.
type SyncService struct {
	catalog *CacheService
	logger  *zap.Logger
}

// NewSyncService constructs the service. catalog may be nil.
func NewSyncService(catalog *CacheService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{catalog: catalog, logger: logger}
}

// LoadAdmin fetches what the admin dashboard shows: every department, every
// lecturer (for the pending approval list) and, when departmentID is set,
// that department's modules and students.
func (s *SyncService) LoadAdmin(ctx context.Context, ws *Workspace, departmentID string) error {
	ticket := ws.Views.Mount(ctx, viewAdmin)

	var (
		departments []models.Department
		lecturers   []models.User
		modules     []models.Module
		students    []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		departments, err = s.departments(gctx, ws)
		return err
	})
	g.Go(func() (err error) {
		lecturers, err = sharedUsers(gctx, ws, "lecturers:all", func(ctx context.Context) ([]models.User, error) { return ws.API.Lecturers(ctx) })
		return err
	})
	if departmentID != "" {
		g.Go(func() (err error) {
			modules, err = s.modulesByDepartment(gctx, ws, departmentID)
			return err
		})
		g.Go(func() (err error) {
			students, err = sharedUsers(gctx, ws, "students:dept:"+departmentID, func(ctx context.Context) ([]models.User, error) {
				return ws.API.StudentsByDepartment(ctx, departmentID)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ticket.Check(); err != nil {
		return err
	}

	for _, d := range departments {
		ws.Store.UpsertDepartment(d)
	}
	s.applyUsers(ws, lecturers)
	s.applyUsers(ws, students)
	for _, m := range modules {
		ws.Store.UpsertModule(m)
	}
	return nil
}

// LoadLecturer fetches the lecturer's own modules and department peers.
func (s *SyncService) LoadLecturer(ctx context.Context, ws *Workspace) error {
	user := ws.User()
	ticket := ws.Views.Mount(ctx, viewLecturer)
	departmentID, hasDept := user.Department()

	var (
		modules []models.Module
		peers   []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		modules, err = sharedModules(gctx, ws, "modules:lecturer:"+user.ID, func(ctx context.Context) ([]models.Module, error) {
			return ws.API.ModulesByLecturer(ctx, user.ID)
		})
		return err
	})
	if hasDept {
		g.Go(func() (err error) {
			peers, err = sharedUsers(gctx, ws, "lecturers:dept:"+departmentID, func(ctx context.Context) ([]models.User, error) {
				return ws.API.LecturersByDepartment(ctx, departmentID)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	departments := s.optionalDepartments(ctx, ws)
	if err := ticket.Check(); err != nil {
		return err
	}

	for _, d := range departments {
		ws.Store.UpsertDepartment(d)
	}
	s.applyUsers(ws, peers)
	for _, m := range modules {
		ws.Store.UpsertModule(m)
	}
	return nil
}

// LoadStudent fetches the student's department catalog and current enrollments.
func (s *SyncService) LoadStudent(ctx context.Context, ws *Workspace) error {
	user := ws.User()
	ticket := ws.Views.Mount(ctx, viewStudent)
	departmentID, hasDept := user.Department()

	var (
		catalog   []models.Module
		enrolled  []models.Module
		lecturers []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		enrolled, err = sharedModules(gctx, ws, "modules:student:"+user.ID, func(ctx context.Context) ([]models.Module, error) {
			return ws.API.ModulesByStudent(ctx, user.ID)
		})
		return err
	})
	if hasDept {
		g.Go(func() (err error) {
			catalog, err = s.modulesByDepartment(gctx, ws, departmentID)
			return err
		})
		g.Go(func() (err error) {
			lecturers, err = sharedUsers(gctx, ws, "lecturers:dept:"+departmentID, func(ctx context.Context) ([]models.User, error) {
				return ws.API.LecturersByDepartment(ctx, departmentID)
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	departments := s.optionalDepartments(ctx, ws)
	if err := ticket.Check(); err != nil {
		return err
	}

	for _, d := range departments {
		ws.Store.UpsertDepartment(d)
	}
	s.applyUsers(ws, lecturers)
	for _, m := range catalog {
		ws.Store.UpsertModule(m)
	}
	ids := make([]string, 0, len(enrolled))
	for _, m := range enrolled {
		ws.Store.UpsertModule(m)
		ids = append(ids, m.ID)
	}
	ws.Store.ReplaceStudentEnrollments(user.ID, ids)
	return nil
}

// LoadRoster fetches the students enrolled in moduleID and reconciles the
// module's enrollment records with them.
func (s *SyncService) LoadRoster(ctx context.Context, ws *Workspace, moduleID string) ([]models.User, error) {
	if _, ok := ws.Store.Module(moduleID); !ok {
		return nil, appErrors.ErrModuleNotFound
	}
	ticket := ws.Views.Mount(ctx, viewRoster+moduleID)
	students, err := sharedUsers(ctx, ws, "students:module:"+moduleID, func(ctx context.Context) ([]models.User, error) {
		return ws.API.StudentsByModule(ctx, moduleID)
	})
	if err != nil {
		return nil, err
	}
	if err := ticket.Check(); err != nil {
		return nil, err
	}

	s.applyUsers(ws, students)
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	ws.Store.ReplaceModuleRoster(moduleID, ids)
	return students, nil
}

// RefreshModule reloads one module from upstream. There is no single-module
// endpoint, so the module's department listing is read.
func (s *SyncService) RefreshModule(ctx context.Context, ws *Workspace, moduleID string) error {
	current, ok := ws.Store.Module(moduleID)
	if !ok {
		return appErrors.ErrModuleNotFound
	}
	modules, err := ws.API.ModulesByDepartment(ctx, current.DepartmentID)
	if err != nil {
		return err
	}
	for _, m := range modules {
		if m.ID == moduleID {
			ws.Store.UpsertModule(m)
			return nil
		}
	}
	s.logger.Warn("module missing from department listing", zap.String("module_id", moduleID), zap.String("department_id", current.DepartmentID))
	return nil
}

// InvalidateCatalog drops the shared department catalog.
func (s *SyncService) InvalidateCatalog(ctx context.Context) {
	_ = s.catalog.Forget(ctx, departmentCatalogKey)
}

func (s *SyncService) departments(ctx context.Context, ws *Workspace) ([]models.Department, error) {
	return Remember(ctx, s.catalog, departmentCatalogKey, func() ([]models.Department, error) {
		v, err := ws.shared(ctx, "departments", func(ctx context.Context) (interface{}, error) {
			return ws.API.Departments(ctx)
		})
		if err != nil {
			return nil, err
		}
		return v.([]models.Department), nil
	})
}

// optionalDepartments loads department names for non-admin dashboards. The
// upstream may refuse the listing to these roles, which only costs labels.
func (s *SyncService) optionalDepartments(ctx context.Context, ws *Workspace) []models.Department {
	departments, err := s.departments(ctx, ws)
	if err != nil {
		s.logger.Debug("department listing unavailable", zap.String("workspace", ws.ID), zap.Error(err))
		return nil
	}
	return departments
}

func (s *SyncService) modulesByDepartment(ctx context.Context, ws *Workspace, departmentID string) ([]models.Module, error) {
	return sharedModules(ctx, ws, "modules:dept:"+departmentID, func(ctx context.Context) ([]models.Module, error) {
		return ws.API.ModulesByDepartment(ctx, departmentID)
	})
}

// applyUsers upserts listed users, never overwriting the session's own record.
func (s *SyncService) applyUsers(ws *Workspace, users []models.User) {
	self := ws.User().ID
	for _, u := range users {
		if u.ID == self {
			continue
		}
		ws.Store.UpsertUser(u)
	}
}

func sharedUsers(ctx context.Context, ws *Workspace, key string, fn func(ctx context.Context) ([]models.User, error)) ([]models.User, error) {
	v, err := ws.shared(ctx, key, func(ctx context.Context) (interface{}, error) { return fn(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]models.User), nil
}

func sharedModules(ctx context.Context, ws *Workspace, key string, fn func(ctx context.Context) ([]models.Module, error)) ([]models.Module, error) {
	v, err := ws.shared(ctx, key, func(ctx context.Context) (interface{}, error) { return fn(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]models.Module), nil
}
