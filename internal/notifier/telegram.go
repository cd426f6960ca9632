package notifier

import (
	"context"
	"fmt"

	"github.com/gdg-garage/garage-events-api/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    messageSender
	chatID int64
}

// NewTelegramNotifier logs the bot in with token and posts to chatID.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) NotifyRegistered(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return n.send(ctx, telegramMarkup.registeredMessage(event, reg))
}

func (n *TelegramNotifier) NotifyCanceled(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return n.send(ctx, telegramMarkup.canceledMessage(event, reg))
}

func (n *TelegramNotifier) NotifyEventDeleted(ctx context.Context, event *models.Event) error {
	return n.send(ctx, telegramMarkup.eventDeletedMessage(event))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
