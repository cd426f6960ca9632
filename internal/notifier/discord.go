package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/garage-events-api/internal/models"
)

// channelSender is the part of *discordgo.Session the notifier uses.
type channelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   channelSender
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	n := &DiscordNotifier{channelID: channelID}
	if session != nil {
		n.session = session
	}
	return n
}

func (n *DiscordNotifier) NotifyRegistered(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return n.send(ctx, discordMarkup.registeredMessage(event, reg))
}

func (n *DiscordNotifier) NotifyCanceled(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return n.send(ctx, discordMarkup.canceledMessage(event, reg))
}

func (n *DiscordNotifier) NotifyEventDeleted(ctx context.Context, event *models.Event) error {
	return n.send(ctx, discordMarkup.eventDeletedMessage(event))
}

func (n *DiscordNotifier) send(ctx context.Context, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}
