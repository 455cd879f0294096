package scheduler

import (
	"context"
	"time"

	"city_report_service/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NotificationPurgeScheduler runs the retention sweep for read notifications.
// It is the only background job in the service; every workflow operation stays
// request-scoped.
type NotificationPurgeScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService
	logger       *logrus.Entry
	cronSpec     string
}

func NewNotificationPurgeScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	cronSpec string, // e.g. "0 4 * * *"
) *NotificationPurgeScheduler {
	return &NotificationPurgeScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local)),
		notifService: notifService,
		logger:       logger,
		cronSpec:     cronSpec,
	}
}

func (s *NotificationPurgeScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		purged, err := s.notifService.PurgeRead(ctx)
		if err != nil {
			s.logger.WithError(err).Error("notification retention sweep failed")
			return
		}
		s.logger.WithField("purged", purged).Info("notification retention sweep completed")
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("notification purge scheduler started")
	return nil
}

func (s *NotificationPurgeScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done() // wait for a running sweep to finish
	s.logger.Info("notification purge scheduler stopped")
}
