package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/notification"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO notifications (recipient_id, report_id, type, payload, is_read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.RecipientID, n.ReportID, n.Type, n.Payload).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification: %v: %w", err, apperr.ErrUnavailable)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT id, recipient_id, report_id, type, payload, is_read, created_at
		FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications for recipient %d: %v: %w", recipientID, err, apperr.ErrUnavailable)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := notification.Notification{}
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ReportID, &n.Type, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification row: %v: %w", err, apperr.ErrUnavailable)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %v: %w", err, apperr.ErrUnavailable)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, recipientID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("marking notification %d read: %v: %w", id, err, apperr.ErrUnavailable)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("notification %d for recipient %d: %w", id, recipientID, apperr.ErrNotFound)
	}
	return nil
}

func (r *PostgresNotificationRepository) Delete(ctx context.Context, recipientID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("deleting notification %d: %v: %w", id, err, apperr.ErrUnavailable)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("notification %d for recipient %d: %w", id, recipientID, apperr.ErrNotFound)
	}
	return nil
}

func (r *PostgresNotificationRepository) PurgeRead(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purging read notifications: %v: %w", err, apperr.ErrUnavailable)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged notifications: %v: %w", err, apperr.ErrUnavailable)
	}
	return purged, nil
}
