package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the service.
type AppConfig struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Environment string

	// TelegramToken and TelegramChatID enable the optional Telegram delivery
	// sink; leaving the token empty keeps notifications in-app only.
	TelegramToken  string
	TelegramChatID int64

	NotificationRetentionDays int
	CronSpecNotificationPurge string
	NotifyDispatchTimeout     time.Duration
}

// Load reads configuration from environment variables and a .env file when
// present. godotenv never overrides variables already set in the environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.NotificationRetentionDays = 90
	if retentionStr := os.Getenv("NOTIFICATION_RETENTION_DAYS"); retentionStr != "" {
		retention, err := strconv.Atoi(retentionStr)
		if err != nil || retention <= 0 {
			return nil, fmt.Errorf("invalid NOTIFICATION_RETENTION_DAYS: %q", retentionStr)
		}
		cfg.NotificationRetentionDays = retention
	}

	cfg.CronSpecNotificationPurge = os.Getenv("CRON_SPEC_NOTIFICATION_PURGE")
	if cfg.CronSpecNotificationPurge == "" {
		cfg.CronSpecNotificationPurge = "0 4 * * *" // 04:00 daily
	}

	cfg.NotifyDispatchTimeout = 3 * time.Second
	if timeoutStr := os.Getenv("NOTIFY_DISPATCH_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_DISPATCH_TIMEOUT: %q", timeoutStr)
		}
		cfg.NotifyDispatchTimeout = timeout
	}

	return cfg, nil
}
