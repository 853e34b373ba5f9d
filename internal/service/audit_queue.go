package service

import (
	"context"
	"time"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/pkg/jobs"
)

// QueuedAuditRepository hands audit inserts to a worker pool so intents
// never wait on the database. Reads go straight to the wrapped repository.
type QueuedAuditRepository struct {
	repo    auditRepository
	queue   *jobs.Queue[*models.IntentAudit]
	metrics *MetricsService
}

// NewQueuedAuditRepository wraps repo. Call Start before use and Stop on
// shutdown to flush buffered entries.
func NewQueuedAuditRepository(repo auditRepository, metrics *MetricsService, cfg jobs.QueueConfig) *QueuedAuditRepository {
	q := &QueuedAuditRepository{repo: repo, metrics: metrics}
	q.queue = jobs.NewQueue("intent_audit", q.write, cfg)
	return q
}

// Start launches the writers.
func (q *QueuedAuditRepository) Start(ctx context.Context) {
	q.queue.Start(ctx)
}

// Stop flushes pending entries and stops the writers.
func (q *QueuedAuditRepository) Stop() {
	q.queue.Stop()
}

// Create buffers entry. It fails only when the buffer is full or stopped.
func (q *QueuedAuditRepository) Create(_ context.Context, entry *models.IntentAudit) error {
	return q.queue.Submit(entry)
}

// List reads from the wrapped repository.
func (q *QueuedAuditRepository) List(ctx context.Context, filter models.IntentAuditFilter) ([]models.IntentAudit, int, error) {
	return q.repo.List(ctx, filter)
}

func (q *QueuedAuditRepository) write(ctx context.Context, entry *models.IntentAudit) error {
	start := time.Now()
	err := q.repo.Create(ctx, entry)
	q.metrics.ObserveDBQuery("intent_audit_write", time.Since(start))
	return err
}
