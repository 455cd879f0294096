package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"city_report_service/internal/app"
	"city_report_service/internal/domain/notification"
	"city_report_service/internal/infra/config"
	idb "city_report_service/internal/infra/database"
	"city_report_service/internal/infra/httpapi"
	"city_report_service/internal/infra/logger"
	"city_report_service/internal/infra/scheduler"
	"city_report_service/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLog := logger.Component("main")
	mainLog.WithField("environment", cfg.Environment).Info("city report service starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLog.WithError(err).Fatal("could not connect to database")
	}
	defer db.Close()
	mainLog.Info("database connection established")

	reportRepo := idb.NewPostgresReportRepository(db)
	messageRepo := idb.NewPostgresMessageRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	userDirectory := idb.NewPostgresUserDirectory(db)
	categoryRepo := idb.NewPostgresCategoryRepository(db)
	companyRepo := idb.NewPostgresCompanyRepository(db)

	var sink notification.Sink
	if cfg.TelegramToken != "" {
		telegramSink, err := telegram.NewTelebotSink(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			mainLog.WithError(err).Fatal("could not create telegram sink")
		}
		sink = telegramSink
		mainLog.Info("telegram notification sink enabled")
	}

	notificationService := app.NewNotificationService(
		notificationRepo,
		sink,
		cfg.NotifyDispatchTimeout,
		time.Duration(cfg.NotificationRetentionDays)*24*time.Hour,
		logger.Component("notifications"),
	)
	reportService := app.NewReportService(
		reportRepo, categoryRepo, userDirectory, notificationService,
		logger.Component("reports"),
	)
	delegationService := app.NewDelegationService(
		reportRepo, companyRepo, userDirectory, notificationService,
		logger.Component("delegations"),
	)
	messageService := app.NewMessageService(
		messageRepo, reportRepo, userDirectory, notificationService,
		logger.Component("messages"),
	)

	purgeScheduler := scheduler.NewNotificationPurgeScheduler(
		notificationService,
		logger.Component("scheduler"),
		cfg.CronSpecNotificationPurge,
	)
	if err := purgeScheduler.Start(); err != nil {
		mainLog.WithError(err).Fatal("could not start notification purge scheduler")
	}

	handlers := httpapi.NewHandlers(reportService, delegationService, messageService, notificationService)
	server := httpapi.NewServer(handlers)

	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			mainLog.WithError(err).Fatal("http server stopped")
		}
	}()
	mainLog.WithField("addr", cfg.HTTPAddr).Info("http server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("shutting down")
	purgeScheduler.Stop()
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		mainLog.WithError(err).Warn("http server shutdown was not clean")
	}
	mainLog.Info("shut down gracefully")
}
