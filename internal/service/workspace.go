package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/lms-portal/internal/authz"
	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/store"
)

// LMSAPI is the upstream surface a workspace talks to on behalf of its token.
type LMSAPI interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	ControlUser(ctx context.Context, req models.ControlUserRequest) error
	Departments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error)
	Lecturers(ctx context.Context) ([]models.User, error)
	LecturersByDepartment(ctx context.Context, departmentID string) ([]models.User, error)
	Lecturer(ctx context.Context, id string) (*models.User, error)
	Students(ctx context.Context) ([]models.User, error)
	StudentsByDepartment(ctx context.Context, departmentID string) ([]models.User, error)
	StudentsByModule(ctx context.Context, moduleID string) ([]models.User, error)
	ModulesByDepartment(ctx context.Context, departmentID string) ([]models.Module, error)
	ModulesByLecturer(ctx context.Context, lecturerID string) ([]models.Module, error)
	ModulesByStudent(ctx context.Context, studentID string) ([]models.Module, error)
	CreateModule(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error)
	AssignLecturer(ctx context.Context, req models.AssignmentRequest) (*models.Module, error)
	Enroll(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error)
	Unenroll(ctx context.Context, req models.EnrollmentRequest) error
}

// Workspace is the state kept for one authenticated session: the caller's
// own account, the entity store and everything that operates on it.
type Workspace struct {
	ID        string
	API       LMSAPI
	Store     *store.Store
	Engine    *EnrollmentEngine
	Guard     *authz.Guard
	Views     *ViewTracker
	ExpiresAt time.Time

	mu    sync.RWMutex
	user  models.User
	reads singleflight.Group
}

// NewWorkspace assembles a workspace for user.
func NewWorkspace(id string, user models.User, api LMSAPI, st *store.Store, engineOpts ...EngineOption) *Workspace {
	st.UpsertUser(user)
	return &Workspace{
		ID:     id,
		API:    api,
		Store:  st,
		Engine: NewEnrollmentEngine(st, engineOpts...),
		Guard:  authz.NewGuard(),
		Views:  NewViewTracker(),
		user:   user,
	}
}

// User returns the session's own account.
func (w *Workspace) User() models.User {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user
}

// SetUser replaces the session's own account and mirrors it into the store.
func (w *Workspace) SetUser(u models.User) {
	w.mu.Lock()
	w.user = u
	w.mu.Unlock()
	w.Store.UpsertUser(u)
}

// Actor is the authorization subject of the session.
func (w *Workspace) Actor() authz.Actor {
	return authz.ActorFromUser(w.User())
}

// Can evaluates the guard for the session's actor.
func (w *Workspace) Can(action authz.Action, target authz.Context) bool {
	return w.Guard.Can(w.Actor(), action, target)
}

// sharedCallTimeout bounds a coalesced call once it no longer follows the
// cancellation of the request that started it.
const sharedCallTimeout = 30 * time.Second

// shared coalesces identical concurrent reads within the workspace. The call
// runs detached from ctx so one cancelled caller cannot fail the others; a
// cancelled caller stops waiting and gets its own ctx error.
func (w *Workspace) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := w.reads.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := detach(ctx)
		defer cancel()
		return fn(callCtx)
	})
	return awaitShared(ctx, ch)
}

func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
}

func awaitShared(ctx context.Context, ch <-chan singleflight.Result) (interface{}, error) {
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
