package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/report"

	"github.com/lib/pq"
)

const reportColumns = `id, category_id, title, description, latitude, longitude,
	anonymous, photos, status, reporter_id, assignee_id, technical_office_id,
	external_maintainer_id, company_id, rejection_reason, version, created_at, updated_at`

type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

func (r *PostgresReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `INSERT INTO reports
		(category_id, title, description, latitude, longitude, anonymous, photos, status, reporter_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING id, version, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rep.CategoryID, rep.Title, rep.Description, rep.Latitude, rep.Longitude,
		rep.Anonymous, pq.Array(rep.Photos), rep.Status, rep.ReporterID,
	).Scan(&rep.ID, &rep.Version, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating report: %v: %w", err, apperr.ErrUnavailable)
	}
	return nil
}

func scanReport(row interface{ Scan(...any) error }) (*report.Report, error) {
	rep := report.Report{}
	err := row.Scan(
		&rep.ID, &rep.CategoryID, &rep.Title, &rep.Description, &rep.Latitude, &rep.Longitude,
		&rep.Anonymous, pq.Array(&rep.Photos), &rep.Status, &rep.ReporterID,
		&rep.AssigneeID, &rep.TechnicalOfficeID, &rep.ExternalMaintainerID, &rep.CompanyID,
		&rep.RejectionReason, &rep.Version, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *PostgresReportRepository) GetByID(ctx context.Context, id int64) (*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("getting report %d: %v: %w", id, err, apperr.ErrUnavailable)
	}
	return rep, nil
}

// UpdateWithAudit commits the mutation and its audit entry in one transaction.
// The UPDATE matches on the loaded version; zero rows affected means another
// writer committed first.
func (r *PostgresReportRepository) UpdateWithAudit(ctx context.Context, rep *report.Report, entry *report.AuditEntry) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning report update: %v: %w", err, apperr.ErrUnavailable)
	}
	defer txn.Rollback()

	query := `UPDATE reports
		SET status = $1, assignee_id = $2, technical_office_id = $3,
		    external_maintainer_id = $4, company_id = $5, rejection_reason = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`
	err = txn.QueryRowContext(ctx, query,
		rep.Status, rep.AssigneeID, rep.TechnicalOfficeID,
		rep.ExternalMaintainerID, rep.CompanyID, rep.RejectionReason,
		rep.ID, rep.Version,
	).Scan(&rep.Version, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a lost version race from a missing row.
			var exists bool
			if probeErr := r.db.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, rep.ID).Scan(&exists); probeErr == nil && !exists {
				return fmt.Errorf("report %d: %w", rep.ID, apperr.ErrNotFound)
			}
			return fmt.Errorf("report %d version %d: %w", rep.ID, rep.Version, apperr.ErrConcurrentModification)
		}
		return fmt.Errorf("updating report %d: %v: %w", rep.ID, err, apperr.ErrUnavailable)
	}

	auditQuery := `INSERT INTO report_audit (report_id, actor_id, from_status, to_status, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err = txn.QueryRowContext(ctx, auditQuery,
		entry.ReportID, entry.ActorID, entry.FromStatus, entry.ToStatus, entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit entry for report %d: %v: %w", rep.ID, err, apperr.ErrUnavailable)
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("committing report %d update: %v: %w", rep.ID, err, apperr.ErrUnavailable)
	}
	return nil
}

func (r *PostgresReportRepository) listBy(ctx context.Context, column string, id int64) ([]*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` + column + ` = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("listing reports by %s: %v: %w", column, err, apperr.ErrUnavailable)
	}
	defer rows.Close()

	reports := make([]*report.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %v: %w", err, apperr.ErrUnavailable)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report rows: %v: %w", err, apperr.ErrUnavailable)
	}
	return reports, nil
}

func (r *PostgresReportRepository) ListByReporter(ctx context.Context, reporterID int64) ([]*report.Report, error) {
	return r.listBy(ctx, "reporter_id", reporterID)
}

func (r *PostgresReportRepository) ListByAssignee(ctx context.Context, assigneeID int64) ([]*report.Report, error) {
	return r.listBy(ctx, "assignee_id", assigneeID)
}

func (r *PostgresReportRepository) ListByMaintainer(ctx context.Context, maintainerID int64) ([]*report.Report, error) {
	return r.listBy(ctx, "external_maintainer_id", maintainerID)
}

func (r *PostgresReportRepository) ListAudit(ctx context.Context, reportID int64) ([]*report.AuditEntry, error) {
	query := `SELECT id, report_id, actor_id, from_status, to_status, detail, created_at
		FROM report_audit WHERE report_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("listing audit for report %d: %v: %w", reportID, err, apperr.ErrUnavailable)
	}
	defer rows.Close()

	entries := make([]*report.AuditEntry, 0)
	for rows.Next() {
		entry := report.AuditEntry{}
		if err := rows.Scan(&entry.ID, &entry.ReportID, &entry.ActorID, &entry.FromStatus, &entry.ToStatus, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %v: %w", err, apperr.ErrUnavailable)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %v: %w", err, apperr.ErrUnavailable)
	}
	return entries, nil
}
