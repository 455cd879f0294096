package telegram

import (
	"context"
	"fmt"
	"time"

	"city_report_service/internal/domain/notification"

	"gopkg.in/telebot.v3"
)

// TelebotSink delivers notification records to a Telegram chat via
// gopkg.in/telebot.v3. It is one concrete notification.Sink; the engine only
// ever sees the interface.
type TelebotSink struct {
	bot    *telebot.Bot
	chatID int64
}

// NewTelebotSink constructs the bot in synchronous mode: the sink only sends,
// it never polls for updates.
func NewTelebotSink(token string, chatID int64) (*TelebotSink, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:       token,
		Synchronous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelebotSink{bot: bot, chatID: chatID}, nil
}

// Deliver sends one line per notification. telebot has no context support;
// the dispatcher's timeout still bounds the caller, a late send is just lost.
func (s *TelebotSink) Deliver(_ context.Context, n *notification.Notification) error {
	text := fmt.Sprintf("[%s] report #%d, recipient %d: %s (%s)",
		n.Type, n.ReportID, n.RecipientID, n.Payload, n.CreatedAt.Format(time.RFC3339))

	recipient := &telebot.Chat{ID: s.chatID}
	if _, err := s.bot.Send(recipient, text, &telebot.SendOptions{}); err != nil {
		return fmt.Errorf("sending telegram notification: %w", err)
	}
	return nil
}
