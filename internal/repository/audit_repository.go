package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-portal/internal/models"
)

const intentAuditSchema = `CREATE TABLE IF NOT EXISTS intent_audit_logs (
	id UUID PRIMARY KEY,
	actor_id TEXT,
	actor_role TEXT NOT NULL,
	intent TEXT NOT NULL,
	target_id TEXT,
	outcome TEXT NOT NULL,
	error_code TEXT,
	payload JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_intent_audit_logs_created_at ON intent_audit_logs (created_at DESC)`

// AuditRepository persists intent audit records.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, intentAuditSchema); err != nil {
		return fmt.Errorf("ensure intent audit schema: %w", err)
	}
	return nil
}

// Create inserts an audit record.
func (r *AuditRepository) Create(ctx context.Context, entry *models.IntentAudit) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO intent_audit_logs
	(id, actor_id, actor_role, intent, target_id, outcome, error_code, payload, created_at)
	VALUES (:id, :actor_id, :actor_role, :intent, :target_id, :outcome, :error_code, :payload, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create intent audit: %w", err)
	}
	return nil
}

// List returns audit records matching the filter, latest first, with the total count.
func (r *AuditRepository) List(ctx context.Context, filter models.IntentAuditFilter) ([]models.IntentAudit, int, error) {
	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filter.Intent != "" {
		args = append(args, filter.Intent)
		conditions = append(conditions, fmt.Sprintf("intent = $%d", len(args)))
	}
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
		conditions = append(conditions, fmt.Sprintf("outcome = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM intent_audit_logs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count intent audits: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	query := fmt.Sprintf(`SELECT id, actor_id, actor_role, intent, target_id, outcome, error_code, payload, created_at
	FROM intent_audit_logs%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, (page-1)*size)

	var entries []models.IntentAudit
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list intent audits: %w", err)
	}
	return entries, total, nil
}
