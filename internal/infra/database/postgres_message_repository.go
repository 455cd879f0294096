package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/user"
)

type PostgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, m *message.Message) error {
	query := `INSERT INTO messages (report_id, author_id, channel, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.ReportID, m.AuthorID, m.Channel, m.Content).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %v: %w", err, apperr.ErrUnavailable)
	}
	return nil
}

func (r *PostgresMessageRepository) ListByChannel(ctx context.Context, reportID int64, channel message.Channel) ([]*message.Message, error) {
	query := `SELECT m.id, m.report_id, m.author_id, m.channel, m.content, m.created_at,
		       u.display_name, u.role
		FROM messages m
		JOIN users u ON u.id = m.author_id
		WHERE m.report_id = $1 AND m.channel = $2
		ORDER BY m.id ASC`
	rows, err := r.db.QueryContext(ctx, query, reportID, channel)
	if err != nil {
		return nil, fmt.Errorf("listing %s messages for report %d: %v: %w", channel, reportID, err, apperr.ErrUnavailable)
	}
	defer rows.Close()

	messages := make([]*message.Message, 0)
	for rows.Next() {
		m := message.Message{Author: &user.User{}}
		if err := rows.Scan(
			&m.ID, &m.ReportID, &m.AuthorID, &m.Channel, &m.Content, &m.CreatedAt,
			&m.Author.DisplayName, &m.Author.Role,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %v: %w", err, apperr.ErrUnavailable)
		}
		m.Author.ID = m.AuthorID
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %v: %w", err, apperr.ErrUnavailable)
	}
	return messages, nil
}

func (r *PostgresMessageRepository) LatestMessageID(ctx context.Context, reportID int64, channel message.Channel) (int64, error) {
	query := `SELECT COALESCE(MAX(id), 0) FROM messages WHERE report_id = $1 AND channel = $2`
	var latest int64
	if err := r.db.QueryRowContext(ctx, query, reportID, channel).Scan(&latest); err != nil {
		return 0, fmt.Errorf("finding newest message for report %d: %v: %w", reportID, err, apperr.ErrUnavailable)
	}
	return latest, nil
}

// UpsertMarker converges monotonically: GREATEST keeps the stored position
// when a stale session reports an older message id, so concurrent opens from
// two sessions of one user end at the same marker.
func (r *PostgresMessageRepository) UpsertMarker(ctx context.Context, userID, reportID int64, channel message.Channel, messageID int64) error {
	query := `INSERT INTO read_markers (user_id, report_id, channel, last_read_message_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, report_id, channel)
		DO UPDATE SET last_read_message_id = GREATEST(read_markers.last_read_message_id, EXCLUDED.last_read_message_id),
		              updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, userID, reportID, channel, messageID); err != nil {
		return fmt.Errorf("upserting read marker: %v: %w", err, apperr.ErrUnavailable)
	}
	return nil
}

func (r *PostgresMessageRepository) GetMarker(ctx context.Context, userID, reportID int64, channel message.Channel) (*message.ReadMarker, error) {
	query := `SELECT user_id, report_id, channel, last_read_message_id, updated_at
		FROM read_markers WHERE user_id = $1 AND report_id = $2 AND channel = $3`
	marker := message.ReadMarker{}
	err := r.db.QueryRowContext(ctx, query, userID, reportID, channel).Scan(
		&marker.UserID, &marker.ReportID, &marker.Channel, &marker.LastReadMessageID, &marker.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("read marker (%d, %d, %s): %w", userID, reportID, channel, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("getting read marker: %v: %w", err, apperr.ErrUnavailable)
	}
	return &marker, nil
}

// CountUnread treats a missing marker as position 0 (everything unread) and
// never counts the user's own messages.
func (r *PostgresMessageRepository) CountUnread(ctx context.Context, userID, reportID int64, channel message.Channel) (int, error) {
	query := `SELECT COUNT(*)
		FROM messages m
		WHERE m.report_id = $1 AND m.channel = $2 AND m.author_id != $3
		  AND m.id > COALESCE(
		      (SELECT rm.last_read_message_id FROM read_markers rm
		        WHERE rm.user_id = $3 AND rm.report_id = $1 AND rm.channel = $2), 0)`
	var count int
	if err := r.db.QueryRowContext(ctx, query, reportID, channel, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread messages: %v: %w", err, apperr.ErrUnavailable)
	}
	return count, nil
}
