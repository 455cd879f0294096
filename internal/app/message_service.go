package app

import (
	"context"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/access"
	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// MessageService routes posts into the citizen and internal channels, lists
// channel logs, and tracks per-user read positions from which unread badge
// counts are derived.
type MessageService interface {
	PostMessage(ctx context.Context, actorID int64, role user.Role, reportID int64, channel message.Channel, content string) (*message.Message, error)
	ListMessages(ctx context.Context, actorID int64, role user.Role, reportID int64, channel message.Channel) ([]*message.Message, error)

	// MarkChannelOpened advances the caller's read marker to the newest
	// message in the channel. No-op on an empty channel; never moves the
	// marker backward.
	MarkChannelOpened(ctx context.Context, userID int64, role user.Role, reportID int64, channel message.Channel) error

	// ComputeUnread counts messages above the caller's marker, own messages
	// excluded. Always recomputed from current data, so a message arriving
	// after the last open simply shows up in the next count. Read access is
	// checked the same way as ListMessages.
	ComputeUnread(ctx context.Context, userID int64, role user.Role, reportID int64, channel message.Channel) (int, error)

	// UnreadSummary returns the per-channel unread counts a report view
	// renders as badges. Channels the caller cannot read stay at zero.
	UnreadSummary(ctx context.Context, userID int64, role user.Role, reportID int64) (map[message.Channel]int, error)
}

type MessageServiceImpl struct {
	messages message.Repository
	reports  report.Repository
	users    user.Directory
	notifier Notifier
	logger   *logrus.Entry
}

func NewMessageService(
	messages message.Repository,
	reports report.Repository,
	users user.Directory,
	notifier Notifier,
	logger *logrus.Entry,
) *MessageServiceImpl {
	return &MessageServiceImpl{
		messages: messages,
		reports:  reports,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// checkChannelAvailable verifies the channel exists for the report's current
// state, independent of who is asking. Availability is checked before
// capabilities so a revoked maintainer gets ChannelNotAvailable, not
// Forbidden.
func checkChannelAvailable(rep *report.Report, channel message.Channel) error {
	switch channel {
	case message.ChannelCitizen:
		if rep.Anonymous {
			return fmt.Errorf("citizen channel on anonymous report %d: %w", rep.ID, apperr.ErrChannelNotAvailable)
		}
		if rep.Status == report.StatusPendingApproval || rep.Status == report.StatusRejected {
			return fmt.Errorf("citizen channel on %s report %d: %w", rep.Status, rep.ID, apperr.ErrChannelNotAvailable)
		}
	case message.ChannelInternal:
		if !rep.HasDelegation() {
			return fmt.Errorf("internal channel without delegation on report %d: %w", rep.ID, apperr.ErrChannelNotAvailable)
		}
	default:
		return fmt.Errorf("unknown channel %q: %w", channel, apperr.ErrChannelNotAvailable)
	}
	return nil
}

// checkChannelRead decides read access. Reading is wider than posting in one
// case only: the owning technician may still read internal history after a
// revoke.
func checkChannelRead(actorID int64, role user.Role, rep *report.Report, channel message.Channel) error {
	switch channel {
	case message.ChannelCitizen:
		if err := checkChannelAvailable(rep, channel); err != nil {
			return err
		}
		switch role {
		case user.RoleCitizen:
			if rep.ReporterID != actorID {
				return fmt.Errorf("citizen channel of report %d: %w", rep.ID, apperr.ErrForbidden)
			}
		case user.RoleTechnician:
			if !rep.IsAssignee(actorID) {
				return fmt.Errorf("citizen channel of report %d: %w", rep.ID, apperr.ErrForbidden)
			}
		default:
			return fmt.Errorf("citizen channel of report %d as %s: %w", rep.ID, role, apperr.ErrForbidden)
		}
	case message.ChannelInternal:
		if role == user.RoleTechnician && rep.IsAssignee(actorID) {
			return nil // history stays readable after revoke
		}
		if err := checkChannelAvailable(rep, channel); err != nil {
			return err
		}
		if role != user.RoleExternalMaintainer || !rep.IsExternalMaintainer(actorID) {
			return fmt.Errorf("internal channel of report %d as %s: %w", rep.ID, role, apperr.ErrForbidden)
		}
	default:
		return fmt.Errorf("unknown channel %q: %w", channel, apperr.ErrChannelNotAvailable)
	}
	return nil
}

func capabilityForChannel(channel message.Channel) report.Capability {
	if channel == message.ChannelInternal {
		return report.CapabilityPostInternalMessage
	}
	return report.CapabilityPostCitizenMessage
}

func (s *MessageServiceImpl) PostMessage(ctx context.Context, actorID int64, role user.Role, reportID int64, channel message.Channel, content string) (*message.Message, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkChannelAvailable(rep, channel); err != nil {
		return nil, err
	}
	if !access.Resolve(actorID, role, rep).Has(capabilityForChannel(channel)) {
		return nil, fmt.Errorf("posting on %s channel of report %d as %s: %w", channel, reportID, role, apperr.ErrForbidden)
	}
	if message.IsBlank(content) {
		return nil, fmt.Errorf("message on report %d: %w", reportID, apperr.ErrEmptyContent)
	}

	author, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolving author %d: %w", actorID, err)
	}

	msg := &message.Message{
		ReportID: reportID,
		AuthorID: actorID,
		Channel:  channel,
		Content:  content,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	msg.Author = author

	s.logger.WithFields(logrus.Fields{
		"report_id":  reportID,
		"message_id": msg.ID,
		"author_id":  actorID,
		"channel":    channel,
	}).Info("message posted")

	s.notifier.MessagePosted(rep, msg, channelParticipants(rep, channel))
	return msg, nil
}

// channelParticipants returns everyone who converses on the channel; the
// dispatcher drops the author itself.
func channelParticipants(rep *report.Report, channel message.Channel) []int64 {
	var ids []int64
	switch channel {
	case message.ChannelCitizen:
		ids = append(ids, rep.ReporterID)
		if rep.AssigneeID.Valid {
			ids = append(ids, rep.AssigneeID.Int64)
		}
	case message.ChannelInternal:
		if rep.AssigneeID.Valid {
			ids = append(ids, rep.AssigneeID.Int64)
		}
		if rep.ExternalMaintainerID.Valid {
			ids = append(ids, rep.ExternalMaintainerID.Int64)
		}
	}
	return ids
}

func (s *MessageServiceImpl) ListMessages(ctx context.Context, actorID int64, role user.Role, reportID int64, channel message.Channel) ([]*message.Message, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := checkChannelRead(actorID, role, rep, channel); err != nil {
		return nil, err
	}
	return s.messages.ListByChannel(ctx, reportID, channel)
}

func (s *MessageServiceImpl) MarkChannelOpened(ctx context.Context, userID int64, role user.Role, reportID int64, channel message.Channel) error {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if err := checkChannelRead(userID, role, rep, channel); err != nil {
		return err
	}

	latest, err := s.messages.LatestMessageID(ctx, reportID, channel)
	if err != nil {
		return fmt.Errorf("finding newest message: %w", err)
	}
	if latest == 0 {
		return nil
	}
	return s.messages.UpsertMarker(ctx, userID, reportID, channel, latest)
}

func (s *MessageServiceImpl) ComputeUnread(ctx context.Context, userID int64, role user.Role, reportID int64, channel message.Channel) (int, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return 0, err
	}
	if err := checkChannelRead(userID, role, rep, channel); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, userID, reportID, channel)
}

func (s *MessageServiceImpl) UnreadSummary(ctx context.Context, userID int64, role user.Role, reportID int64) (map[message.Channel]int, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	summary := make(map[message.Channel]int, 2)
	for _, channel := range []message.Channel{message.ChannelCitizen, message.ChannelInternal} {
		// Unreadable channels stay at zero rather than failing the whole
		// summary or leaking their counts.
		if err := checkChannelRead(userID, role, rep, channel); err != nil {
			summary[channel] = 0
			continue
		}
		n, err := s.messages.CountUnread(ctx, userID, reportID, channel)
		if err != nil {
			return nil, fmt.Errorf("counting unread on %s channel: %w", channel, err)
		}
		summary[channel] = n
	}
	return summary, nil
}
