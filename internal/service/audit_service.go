package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-portal/internal/models"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.IntentAudit) error
	List(ctx context.Context, filter models.IntentAuditFilter) ([]models.IntentAudit, int, error)
}

// AuditService records intent outcomes. A nil repository disables it.
type AuditService struct {
	repo    auditRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// Enabled reports whether records are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Record persists one intent outcome. Failures are logged, never returned:
// the intent already happened.
func (s *AuditService) Record(ctx context.Context, actor models.User, intent, targetID string, payload interface{}, outcome string, cause error) {
	if !s.Enabled() {
		return
	}
	entry := &models.IntentAudit{
		ActorRole: string(actor.Role),
		Intent:    intent,
		Outcome:   outcome,
	}
	if actor.ID != "" {
		entry.ActorID = &actor.ID
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if cause != nil {
		code := appErrors.FromError(cause).Code
		entry.ErrorCode = &code
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Payload = raw
		}
	}
	start := time.Now()
	err := s.repo.Create(ctx, entry)
	s.metrics.ObserveDBQuery("intent_audit_create", time.Since(start))
	if err != nil {
		s.logger.Warn("failed to record intent audit", zap.String("intent", intent), zap.Error(err))
	}
}

// List returns audit records with pagination metadata.
func (s *AuditService) List(ctx context.Context, filter models.IntentAuditFilter) ([]models.IntentAudit, *models.Pagination, error) {
	if !s.Enabled() {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "intent audit is disabled")
	}
	start := time.Now()
	entries, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("intent_audit_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list intent audits")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
