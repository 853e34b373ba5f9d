package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

type registrar interface {
	Register(ctx context.Context, req models.RegistrationRequest) error
}

// RegistrationResult tells the client what happens next for the new account.
type RegistrationResult struct {
	Username        string          `json:"username"`
	Role            models.UserRole `json:"role"`
	IsActive        bool            `json:"isActive"`
	PendingApproval bool            `json:"pendingApproval"`
}

// RegistrationService validates sign-ups and forwards them upstream.
type RegistrationService struct {
	upstream  registrar
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(upstream registrar, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{upstream: upstream, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Register creates a student or lecturer account. Lecturers start inactive
// until an admin approves them.
func (s *RegistrationService) Register(ctx context.Context, req models.RegistrationRequest) (result *RegistrationResult, err error) {
	req.Role = models.ParseRole(string(req.Role))
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.DepartmentID = strings.TrimSpace(req.DepartmentID)

	defer func() {
		outcome := Outcome(err)
		s.metrics.RecordIntent(models.IntentRegister, outcome)
		s.audit.Record(ctx, models.User{Role: req.Role}, models.IntentRegister, req.Username,
			map[string]string{"username": req.Username, "role": string(req.Role), "departmentId": req.DepartmentID}, outcome, err)
	}()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if err := s.upstream.Register(ctx, req); err != nil {
		return nil, err
	}

	active := models.InitialActive(req.Role)
	s.logger.Info("account registered", zap.String("username", req.Username), zap.String("role", string(req.Role)), zap.Bool("active", active))
	return &RegistrationResult{
		Username:        req.Username,
		Role:            req.Role,
		IsActive:        active,
		PendingApproval: !active,
	}, nil
}
