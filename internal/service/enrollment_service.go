package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/store"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// EnrollmentEngine owns the capacity state machine of one workspace. Every
// mutation of a module's enrolledCount happens here, together with the
// enrollment record it accounts for.
type EnrollmentEngine struct {
	store           *store.Store
	requireLecturer bool
	now             func() time.Time
	newID           func() string
}

// EngineOption configures an EnrollmentEngine.
type EngineOption func(*EnrollmentEngine)

// WithLecturerRequired toggles whether a module needs an assigned lecturer
// before students may enroll.
func WithLecturerRequired(required bool) EngineOption {
	return func(e *EnrollmentEngine) { e.requireLecturer = required }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *EnrollmentEngine) { e.now = now }
}

// WithIDGenerator overrides how local enrollment ids are minted.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *EnrollmentEngine) { e.newID = gen }
}

// NewEnrollmentEngine constructs an engine over st.
func NewEnrollmentEngine(st *store.Store, opts ...EngineOption) *EnrollmentEngine {
	e := &EnrollmentEngine{
		store:           st,
		requireLecturer: true,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrollOption adjusts a single Enroll call.
type EnrollOption func(*enrollParams)

type enrollParams struct {
	id string
	at time.Time
}

// WithConfirmed records the id and timestamp the server assigned.
func WithConfirmed(id string, at time.Time) EnrollOption {
	return func(p *enrollParams) {
		p.id = id
		p.at = at
	}
}

// CheckEnroll runs the enroll preconditions without mutating anything.
func (e *EnrollmentEngine) CheckEnroll(studentID, moduleID string) error {
	var err error
	e.store.View(func(tx *store.ReadTx) {
		_, err = e.checkEnroll(tx, studentID, moduleID)
	})
	return err
}

// Enroll creates the enrollment and takes one seat.
func (e *EnrollmentEngine) Enroll(studentID, moduleID string, opts ...EnrollOption) (*models.Enrollment, error) {
	params := enrollParams{}
	for _, opt := range opts {
		opt(&params)
	}
	if params.id == "" {
		params.id = e.newID()
	}
	if params.at.IsZero() {
		params.at = e.now()
	}

	var created models.Enrollment
	err := e.store.Update(func(tx *store.Tx) error {
		module, err := e.checkEnroll(&tx.ReadTx, studentID, moduleID)
		if err != nil {
			return err
		}
		created = models.Enrollment{ID: params.id, StudentID: studentID, ModuleID: moduleID, EnrolledAt: params.at}
		tx.PutEnrollment(created)
		module.EnrolledCount++
		tx.PutModule(module)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (e *EnrollmentEngine) checkEnroll(tx *store.ReadTx, studentID, moduleID string) (models.Module, error) {
	module, ok := tx.Module(moduleID)
	if !ok {
		return models.Module{}, appErrors.ErrModuleNotFound
	}
	if e.requireLecturer && !module.HasLecturer() {
		return models.Module{}, appErrors.ErrLecturerNotAssigned
	}
	if module.IsFull() {
		return models.Module{}, appErrors.ErrModuleFull
	}
	if _, enrolled := tx.EnrollmentFor(studentID, moduleID); enrolled {
		return models.Module{}, appErrors.ErrAlreadyEnrolled
	}
	if student, ok := tx.User(studentID); !ok || student.Role != models.RoleStudent {
		return models.Module{}, appErrors.ErrStudentNotFound
	}
	return module, nil
}

// CheckUnenroll reports NotEnrolled when no record links the pair.
func (e *EnrollmentEngine) CheckUnenroll(studentID, moduleID string) error {
	if _, ok := e.store.EnrollmentFor(studentID, moduleID); !ok {
		return appErrors.ErrNotEnrolled
	}
	return nil
}

// Unenroll removes the enrollment and frees its seat.
func (e *EnrollmentEngine) Unenroll(studentID, moduleID string) error {
	return e.store.Update(func(tx *store.Tx) error {
		enrollment, ok := tx.EnrollmentFor(studentID, moduleID)
		if !ok {
			return appErrors.ErrNotEnrolled
		}
		tx.DeleteEnrollment(enrollment.ID)
		if module, ok := tx.Module(moduleID); ok {
			if module.EnrolledCount > 0 {
				module.EnrolledCount--
			}
			tx.PutModule(module)
		}
		return nil
	})
}

// CheckAssignLecturer runs the assignment preconditions without mutating anything.
func (e *EnrollmentEngine) CheckAssignLecturer(moduleID, lecturerID string) error {
	var err error
	e.store.View(func(tx *store.ReadTx) {
		_, err = checkAssign(tx, moduleID, lecturerID)
	})
	return err
}

// AssignLecturer sets the module's lecturer. Reassignment replaces the
// previous lecturer and leaves enrollments untouched.
func (e *EnrollmentEngine) AssignLecturer(moduleID, lecturerID string) (*models.Module, error) {
	var updated models.Module
	err := e.store.Update(func(tx *store.Tx) error {
		module, err := checkAssign(&tx.ReadTx, moduleID, lecturerID)
		if err != nil {
			return err
		}
		module.LecturerID = null.StringFrom(lecturerID)
		tx.PutModule(module)
		updated = module
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func checkAssign(tx *store.ReadTx, moduleID, lecturerID string) (models.Module, error) {
	module, ok := tx.Module(moduleID)
	if !ok {
		return models.Module{}, appErrors.ErrModuleNotFound
	}
	lecturer, ok := tx.User(lecturerID)
	if !ok {
		return models.Module{}, appErrors.ErrLecturerNotFound
	}
	if lecturer.Role != models.RoleLecturer {
		return models.Module{}, appErrors.ErrNotALecturer
	}
	if !lecturer.IsActive {
		return models.Module{}, appErrors.ErrLecturerInactive
	}
	if !lecturer.InDepartment(module.DepartmentID) {
		return models.Module{}, appErrors.ErrLecturerDepartmentMismatch
	}
	return module, nil
}
