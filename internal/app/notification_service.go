package app

import (
	"context"
	"fmt"
	"time"

	"city_report_service/internal/domain/message"
	"city_report_service/internal/domain/notification"
	"city_report_service/internal/domain/report"

	"github.com/sirupsen/logrus"
)

// Notifier is the dispatch side consumed by the workflow services. Every call
// is fire-and-forget: it runs detached from the triggering request context,
// bounded by the dispatch timeout, and never returns an error to the caller.
type Notifier interface {
	StatusChanged(rep *report.Report, from report.Status)
	Assigned(rep *report.Report)
	Delegated(rep *report.Report)
	DelegationRevoked(rep *report.Report, formerMaintainerID int64)
	MessagePosted(rep *report.Report, msg *message.Message, recipientIDs []int64)
}

// NotificationService adds the recipient-facing operations on top of dispatch.
type NotificationService interface {
	Notifier
	ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*notification.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, notificationID int64) error
	DeleteNotification(ctx context.Context, recipientID, notificationID int64) error

	// PurgeRead removes read notifications older than the retention window.
	PurgeRead(ctx context.Context) (int64, error)
}

type NotificationServiceImpl struct {
	repo            notification.Repository
	sink            notification.Sink // nil when no delivery adapter is configured
	dispatchTimeout time.Duration
	retention       time.Duration
	logger          *logrus.Entry
}

func NewNotificationService(
	repo notification.Repository,
	sink notification.Sink,
	dispatchTimeout time.Duration,
	retention time.Duration,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		repo:            repo,
		sink:            sink,
		dispatchTimeout: dispatchTimeout,
		retention:       retention,
		logger:          logger,
	}
}

func (s *NotificationServiceImpl) StatusChanged(rep *report.Report, from report.Status) {
	s.dispatch(&notification.Notification{
		RecipientID: rep.ReporterID,
		ReportID:    rep.ID,
		Type:        notification.TypeStatusChange,
		Payload:     fmt.Sprintf("report %q moved from %s to %s", rep.Title, from, rep.Status),
	})
}

func (s *NotificationServiceImpl) Assigned(rep *report.Report) {
	if !rep.AssigneeID.Valid {
		return
	}
	s.dispatch(&notification.Notification{
		RecipientID: rep.AssigneeID.Int64,
		ReportID:    rep.ID,
		Type:        notification.TypeAssignment,
		Payload:     fmt.Sprintf("report %q has been assigned to you", rep.Title),
	})
}

func (s *NotificationServiceImpl) Delegated(rep *report.Report) {
	if !rep.ExternalMaintainerID.Valid {
		return
	}
	s.dispatch(&notification.Notification{
		RecipientID: rep.ExternalMaintainerID.Int64,
		ReportID:    rep.ID,
		Type:        notification.TypeDelegation,
		Payload:     fmt.Sprintf("report %q has been delegated to you", rep.Title),
	})
}

func (s *NotificationServiceImpl) DelegationRevoked(rep *report.Report, formerMaintainerID int64) {
	s.dispatch(&notification.Notification{
		RecipientID: formerMaintainerID,
		ReportID:    rep.ID,
		Type:        notification.TypeDelegation,
		Payload:     fmt.Sprintf("delegation of report %q has been revoked", rep.Title),
	})
}

func (s *NotificationServiceImpl) MessagePosted(rep *report.Report, msg *message.Message, recipientIDs []int64) {
	for _, recipientID := range recipientIDs {
		if recipientID == msg.AuthorID {
			continue
		}
		s.dispatch(&notification.Notification{
			RecipientID: recipientID,
			ReportID:    rep.ID,
			Type:        notification.TypeNewMessage,
			Payload:     fmt.Sprintf("new message on report %q", rep.Title),
		})
	}
}

// dispatch persists the record and hands it to the delivery sink. It runs on
// a fresh context so a disconnecting caller cannot cancel it, stays within the
// configured timeout, and only logs failures: the business transition has
// already committed and is never rolled back or retried on our account.
func (s *NotificationServiceImpl) dispatch(n *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"recipient_id": n.RecipientID,
			"report_id":    n.ReportID,
			"type":         n.Type,
		}).WithError(err).Error("failed to persist notification, dropping")
		return
	}

	if s.sink == nil {
		return
	}
	if err := s.sink.Deliver(ctx, n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"recipient_id":    n.RecipientID,
		}).WithError(err).Warn("notification delivery failed, record kept for in-app consumption")
	}
}

func (s *NotificationServiceImpl) ListNotifications(ctx context.Context, recipientID int64, unreadOnly bool) ([]*notification.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, unreadOnly)
}

func (s *NotificationServiceImpl) MarkNotificationRead(ctx context.Context, recipientID, notificationID int64) error {
	return s.repo.MarkRead(ctx, recipientID, notificationID)
}

func (s *NotificationServiceImpl) DeleteNotification(ctx context.Context, recipientID, notificationID int64) error {
	return s.repo.Delete(ctx, recipientID, notificationID)
}

func (s *NotificationServiceImpl) PurgeRead(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	purged, err := s.repo.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging read notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("purged read notifications past retention")
	}
	return purged, nil
}
