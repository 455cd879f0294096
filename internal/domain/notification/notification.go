package notification

import (
	"context"
	"time"
)

// Type classifies what a notification is about.
type Type string

const (
	TypeStatusChange Type = "STATUS_CHANGE"
	TypeAssignment   Type = "ASSIGNMENT"
	TypeDelegation   Type = "DELEGATION"
	TypeNewMessage   Type = "NEW_MESSAGE"
)

// Notification is one record queued for a recipient. It sits outside the
// state machine's consistency boundary: creation is best-effort, and the
// recipient reads or deletes it independently.
type Notification struct {
	ID          int64
	RecipientID int64
	ReportID    int64
	Type        Type
	Payload     string
	IsRead      bool
	CreatedAt   time.Time
}

// Repository persists notification records.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, recipientID, id int64) error
	Delete(ctx context.Context, recipientID, id int64) error

	// PurgeRead deletes read notifications created before the cutoff and
	// returns how many rows went away.
	PurgeRead(ctx context.Context, olderThan time.Time) (int64, error)
}

// Sink accepts notification records for downstream delivery (in-app, email,
// push). Delivery failures never propagate to the triggering operation.
type Sink interface {
	Deliver(ctx context.Context, n *Notification) error
}
