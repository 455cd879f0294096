package report

import "context"

// Repository persists reports and their audit trail.
//
// Update and UpdateWithAudit implement optimistic locking: they match on the
// report's loaded Version, bump it on success, and fail with
// apperr.ErrConcurrentModification when another writer got there first.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id int64) (*Report, error)

	// UpdateWithAudit commits the report mutation and the audit entry in one
	// transaction.
	UpdateWithAudit(ctx context.Context, r *Report, entry *AuditEntry) error

	ListByReporter(ctx context.Context, reporterID int64) ([]*Report, error)
	ListByAssignee(ctx context.Context, assigneeID int64) ([]*Report, error)
	ListByMaintainer(ctx context.Context, maintainerID int64) ([]*Report, error)

	ListAudit(ctx context.Context, reportID int64) ([]*AuditEntry, error)
}
