package message

import "context"

// Repository persists messages and per-user read markers. Messages are
// append-only; markers converge monotonically under concurrent updates.
type Repository interface {
	Insert(ctx context.Context, m *Message) error

	// ListByChannel returns the channel log ordered by id ascending, authors
	// hydrated.
	ListByChannel(ctx context.Context, reportID int64, channel Channel) ([]*Message, error)

	// LatestMessageID returns the newest message id in the channel, 0 when the
	// channel is empty.
	LatestMessageID(ctx context.Context, reportID int64, channel Channel) (int64, error)

	// UpsertMarker records that the user has seen everything up to messageID.
	// The stored value never moves backward.
	UpsertMarker(ctx context.Context, userID, reportID int64, channel Channel, messageID int64) error

	GetMarker(ctx context.Context, userID, reportID int64, channel Channel) (*ReadMarker, error)

	// CountUnread counts messages above the user's marker, excluding the
	// user's own messages. A missing marker counts the whole channel.
	CountUnread(ctx context.Context, userID, reportID int64, channel Channel) (int, error)
}
