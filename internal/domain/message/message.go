package message

import (
	"database/sql"
	"strings"
	"time"

	"city_report_service/internal/domain/user"
)

// Channel partitions a report's message log by participant pair. Channels are
// not stored entities; their availability is a pure function of the report's
// current state.
type Channel string

const (
	// ChannelCitizen carries the conversation between the reporter and the
	// assigned technician.
	ChannelCitizen Channel = "CITIZEN"
	// ChannelInternal carries the conversation between the technician and the
	// delegated external maintainer. It exists exactly while a delegation is
	// active.
	ChannelInternal Channel = "INTERNAL"
)

func (c Channel) IsValid() bool {
	return c == ChannelCitizen || c == ChannelInternal
}

// Message is one immutable entry in a report channel. Ordering follows the
// serial id, which is monotonic per channel by insertion.
type Message struct {
	ID        int64
	ReportID  int64
	AuthorID  int64
	Channel   Channel
	Content   string
	CreatedAt time.Time

	// Author carries the id/display-name/role summary for immediate UI echo.
	Author *user.User
}

// IsBlank reports whether content carries no meaningful text.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}

// ReadMarker is the highest message id a user has acknowledged seeing in one
// channel of one report. Monotonically non-decreasing; absent means never
// opened.
type ReadMarker struct {
	UserID            int64
	ReportID          int64
	Channel           Channel
	LastReadMessageID sql.NullInt64
	UpdatedAt         time.Time
}
