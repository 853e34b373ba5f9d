package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-portal/internal/authz"
	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// IntentService turns user intents into upstream calls. Each intent is
// authorized, prechecked against the workspace, claimed against duplicate
// submission and then sent exactly once. The workspace only changes after
// the upstream call succeeded.
type IntentService struct {
	inflight  InFlightGuard
	sync      *SyncService
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	sessions  SessionRevoker
	now       func() time.Time
}

// SessionRevoker drops every cached session of an account.
type SessionRevoker interface {
	EndUser(userID string) int
}

// IntentOption configures an IntentService.
type IntentOption func(*IntentService)

// WithSessionRevoker evicts a user's sessions once a ban is confirmed upstream.
func WithSessionRevoker(r SessionRevoker) IntentOption {
	return func(s *IntentService) { s.sessions = r }
}

// NewIntentService constructs the service.
func NewIntentService(inflight InFlightGuard, sync *SyncService, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts ...IntentOption) *IntentService {
	if inflight == nil {
		inflight = NewMemoryInFlight()
	}
	if sync == nil {
		sync = NewSyncService(nil, logger)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &IntentService{
		inflight:  inflight,
		sync:      sync,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDepartment creates a department upstream and adds it to the workspace.
func (s *IntentService) CreateDepartment(ctx context.Context, ws *Workspace, req models.CreateDepartmentRequest) (dept *models.Department, err error) {
	req.Name = strings.TrimSpace(req.Name)
	defer func() { s.finish(ctx, ws, models.IntentCreateDepartment, idOfDepartment(dept), req, err) }()

	if !ws.Can(authz.ActionCreateDepartment, authz.Context{}) {
		return nil, denied(authz.ActionCreateDepartment)
	}
	if err := s.validate(req, "invalid department payload"); err != nil {
		return nil, err
	}
	release, err := s.inflight.Acquire(ctx, ActionKey(string(authz.ActionCreateDepartment), strings.ToLower(req.Name)))
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := ws.API.CreateDepartment(ctx, req)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, appErrors.Remote(nil, 0, "upstream did not return the department id")
	}
	if created.Name == "" {
		created.Name = req.Name
	}
	ws.Store.UpsertDepartment(*created)
	s.sync.InvalidateCatalog(ctx)
	return created, nil
}

// CreateModule creates a module upstream on behalf of the acting admin.
func (s *IntentService) CreateModule(ctx context.Context, ws *Workspace, req models.CreateModuleRequest) (module *models.Module, err error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	req.AdminID = ws.User().ID
	defer func() { s.finish(ctx, ws, models.IntentCreateModule, idOfModule(module), req, err) }()

	if !ws.Can(authz.ActionCreateModule, authz.Context{}) {
		return nil, denied(authz.ActionCreateModule)
	}
	if err := s.validate(req, "invalid module payload"); err != nil {
		return nil, err
	}
	release, err := s.inflight.Acquire(ctx, ActionKey(string(authz.ActionCreateModule), req.DepartmentID+":"+strings.ToUpper(req.Code)))
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := ws.API.CreateModule(ctx, req)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, appErrors.Remote(nil, 0, "upstream did not return the module id")
	}
	if created.DepartmentID == "" {
		created.DepartmentID = req.DepartmentID
	}
	if created.Limit == 0 {
		created.Limit = req.Limit
	}
	ws.Store.UpsertModule(*created)
	stored, _ := ws.Store.Module(created.ID)
	return &stored, nil
}

// AssignLecturer assigns or reassigns a module's lecturer.
func (s *IntentService) AssignLecturer(ctx context.Context, ws *Workspace, req models.AssignmentRequest) (module *models.Module, err error) {
	defer func() { s.finish(ctx, ws, models.IntentAssignLecturer, req.ModuleID, req, err) }()

	if !ws.Can(authz.ActionAssignLecturer, authz.Context{}) {
		return nil, denied(authz.ActionAssignLecturer)
	}
	if err := s.validate(req, "invalid assignment payload"); err != nil {
		return nil, err
	}
	if err := ws.Engine.CheckAssignLecturer(req.ModuleID, req.LecturerID); err != nil {
		return nil, err
	}
	release, err := s.inflight.Acquire(ctx, ActionKey(string(authz.ActionAssignLecturer), req.ModuleID))
	if err != nil {
		return nil, err
	}
	defer release()

	returned, err := ws.API.AssignLecturer(ctx, req)
	if err != nil {
		return nil, err
	}
	if returned != nil && returned.ID == req.ModuleID {
		ws.Store.UpsertModule(*returned)
	} else if _, applyErr := ws.Engine.AssignLecturer(req.ModuleID, req.LecturerID); applyErr != nil {
		s.reconcileModule(ctx, ws, req.ModuleID, models.IntentAssignLecturer, applyErr)
	}
	stored, _ := ws.Store.Module(req.ModuleID)
	return &stored, nil
}

// ApproveLecturer activates a pending lecturer account.
func (s *IntentService) ApproveLecturer(ctx context.Context, ws *Workspace, lecturerID string) (user *models.User, err error) {
	defer func() { s.finish(ctx, ws, models.IntentApproveLecturer, lecturerID, nil, err) }()

	if !ws.Can(authz.ActionApproveLecturer, authz.Context{}) {
		return nil, denied(authz.ActionApproveLecturer)
	}
	lecturer, ok := ws.Store.User(lecturerID)
	if !ok {
		return nil, appErrors.ErrLecturerNotFound
	}
	if lecturer.Role != models.RoleLecturer {
		return nil, appErrors.ErrNotALecturer
	}
	release, err := s.inflight.Acquire(ctx, ActionKey(string(authz.ActionApproveLecturer), lecturerID))
	if err != nil {
		return nil, err
	}
	defer release()

	req := models.ControlUserRequest{ID: lecturerID, Control: models.ControlUnban, Role: models.ControlRole(models.RoleLecturer)}
	if err := ws.API.ControlUser(ctx, req); err != nil {
		return nil, err
	}
	lecturer.IsActive = true
	ws.Store.UpsertUser(lecturer)
	return &lecturer, nil
}

// ControlUser bans or unbans a student or lecturer.
func (s *IntentService) ControlUser(ctx context.Context, ws *Workspace, userID string, action models.ControlAction) (user *models.User, err error) {
	defer func() {
		s.finish(ctx, ws, models.IntentControlUser, userID, map[string]string{"control": string(action)}, err)
	}()

	if !ws.Can(authz.ActionBanUser, authz.Context{}) {
		return nil, denied(authz.ActionBanUser)
	}
	if action != models.ControlBan && action != models.ControlUnban {
		return nil, appErrors.Clone(appErrors.ErrValidation, "control must be BAN or UNBAN")
	}
	target, ok := ws.Store.User(userID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if target.Role != models.RoleStudent && target.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only students and lecturers can be banned or unbanned")
	}
	release, err := s.inflight.Acquire(ctx, ActionKey(string(authz.ActionBanUser), userID))
	if err != nil {
		return nil, err
	}
	defer release()

	req := models.ControlUserRequest{ID: userID, Control: action, Role: models.ControlRole(target.Role)}
	if err := ws.API.ControlUser(ctx, req); err != nil {
		return nil, err
	}
	target.IsActive = action == models.ControlUnban
	ws.Store.UpsertUser(target)
	if action == models.ControlBan && s.sessions != nil {
		s.sessions.EndUser(userID)
	}
	return &target, nil
}

// Enroll enrolls the session's student in moduleID.
func (s *IntentService) Enroll(ctx context.Context, ws *Workspace, moduleID string) (enrollment *models.Enrollment, err error) {
	studentID := ws.User().ID
	req := models.EnrollmentRequest{StudentID: studentID, ModuleID: moduleID}
	defer func() { s.finish(ctx, ws, models.IntentEnroll, moduleID, req, err) }()

	if !ws.Can(authz.ActionEnroll, authz.Context{StudentID: studentID}) {
		return nil, denied(authz.ActionEnroll)
	}
	if err := s.validate(req, "invalid enrollment payload"); err != nil {
		return nil, err
	}
	if err := ws.Engine.CheckEnroll(studentID, moduleID); err != nil {
		return nil, err
	}
	release, err := s.inflight.Acquire(ctx, EnrollKey(studentID, moduleID))
	if err != nil {
		return nil, err
	}
	defer release()

	confirmed, err := ws.API.Enroll(ctx, req)
	if err != nil {
		return nil, err
	}
	var opts []EnrollOption
	if confirmed != nil {
		opts = append(opts, WithConfirmed(confirmed.ID, confirmed.EnrolledAt))
	}
	if _, applyErr := ws.Engine.Enroll(studentID, moduleID, opts...); applyErr != nil {
		record := models.Enrollment{
			ID:         models.InferredEnrollmentID(studentID, moduleID),
			StudentID:  studentID,
			ModuleID:   moduleID,
			EnrolledAt: s.now(),
		}
		// A failed refresh leaves the count stale, so the record stays out
		// of the store until the next load brings both in.
		if refreshErr := s.reconcileModule(ctx, ws, moduleID, models.IntentEnroll, applyErr); refreshErr != nil {
			return &record, nil
		}
		if _, ok := ws.Store.EnrollmentFor(studentID, moduleID); !ok {
			ws.Store.UpsertEnrollment(record)
		}
	}
	stored, _ := ws.Store.EnrollmentFor(studentID, moduleID)
	return &stored, nil
}

// Unenroll removes the session's student from moduleID.
func (s *IntentService) Unenroll(ctx context.Context, ws *Workspace, moduleID string) error {
	return s.unenroll(ctx, ws, models.IntentUnenroll, ws.User().ID, moduleID)
}

// ForceUnenroll lets an admin remove any student from moduleID. Only the
// one enrollment is removed; nothing else about the student changes.
func (s *IntentService) ForceUnenroll(ctx context.Context, ws *Workspace, moduleID, studentID string) error {
	return s.unenroll(ctx, ws, models.IntentForceUnenroll, studentID, moduleID)
}

func (s *IntentService) unenroll(ctx context.Context, ws *Workspace, intent, studentID, moduleID string) (err error) {
	req := models.EnrollmentRequest{StudentID: studentID, ModuleID: moduleID}
	defer func() { s.finish(ctx, ws, intent, moduleID, req, err) }()

	if !ws.Can(authz.ActionUnenroll, authz.Context{StudentID: studentID}) {
		return denied(authz.ActionUnenroll)
	}
	if err := s.validate(req, "invalid enrollment payload"); err != nil {
		return err
	}
	if err := ws.Engine.CheckUnenroll(studentID, moduleID); err != nil {
		return err
	}
	release, err := s.inflight.Acquire(ctx, UnenrollKey(studentID, moduleID))
	if err != nil {
		return err
	}
	defer release()

	if err := ws.API.Unenroll(ctx, req); err != nil {
		return err
	}
	if applyErr := ws.Engine.Unenroll(studentID, moduleID); applyErr != nil {
		if refreshErr := s.reconcileModule(ctx, ws, moduleID, intent, applyErr); refreshErr != nil {
			return nil
		}
		if e, ok := ws.Store.EnrollmentFor(studentID, moduleID); ok {
			ws.Store.RemoveEnrollment(e.ID)
		}
	}
	return nil
}

// reconcileModule handles a local apply that the workspace rejected after
// the upstream already accepted the intent: the store drifted, so the
// module is reloaded instead of forcing the mutation. The refresh error is
// returned so callers leave the store untouched when the reload failed.
func (s *IntentService) reconcileModule(ctx context.Context, ws *Workspace, moduleID, intent string, cause error) error {
	s.logger.Warn("workspace rejected confirmed intent, refreshing module",
		zap.String("workspace", ws.ID),
		zap.String("intent", intent),
		zap.String("module_id", moduleID),
		zap.Error(cause),
	)
	if err := s.sync.RefreshModule(ctx, ws, moduleID); err != nil {
		s.logger.Warn("module refresh failed", zap.String("module_id", moduleID), zap.Error(err))
		return err
	}
	return nil
}

func (s *IntentService) validate(req interface{}, message string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

func (s *IntentService) finish(ctx context.Context, ws *Workspace, intent, targetID string, payload interface{}, err error) {
	outcome := Outcome(err)
	s.metrics.RecordIntent(intent, outcome)
	s.audit.Record(ctx, ws.User(), intent, targetID, payload, outcome, err)
	if err != nil {
		s.logger.Debug("intent not applied",
			zap.String("workspace", ws.ID),
			zap.String("intent", intent),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
}

// Outcome classifies an intent result for metrics and audit.
func Outcome(err error) string {
	if err == nil {
		return models.OutcomeSucceeded
	}
	switch appErrors.KindOf(err) {
	case appErrors.KindAuthorization:
		return models.OutcomeDenied
	case appErrors.KindRemote, appErrors.KindInternal:
		return models.OutcomeFailed
	default:
		return models.OutcomeRejected
	}
}

func denied(action authz.Action) error {
	return appErrors.Clone(appErrors.ErrForbidden, "not allowed to "+string(action))
}

func idOfDepartment(d *models.Department) string {
	if d == nil {
		return ""
	}
	return d.ID
}

func idOfModule(m *models.Module) string {
	if m == nil {
		return ""
	}
	return m.ID
}
