package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordNotifierFromConfig returns nil when no bot token is configured.
func NewDiscordNotifierFromConfig(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is not set")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, err
	}
	return NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID), nil
}

// PaymentMessage renders the organizer channel notice for a payment.
func PaymentMessage(trip models.Trip, reg models.Registration, amount float64, provider string) string {
	status := "partial payment"
	if reg.PaymentStatus == models.PaymentCompleted {
		status = "fully paid ✅"
	}

	group := ""
	if reg.GroupName != "" {
		group = fmt.Sprintf("\n**Group:** %s", reg.GroupName)
	}

	return fmt.Sprintf("💳 **Payment received**\n**Trip:** %s\n**Payer:** %s (%s)\n**Participants:** %d\n**Amount:** ₪%.2f via %s\n**Paid so far:** ₪%.2f / ₪%.2f (%s)%s",
		trip.Title,
		reg.PayerName,
		reg.PayerEmail,
		len(reg.Participants),
		amount,
		provider,
		reg.AmountPaid,
		reg.TotalAmount,
		status,
		group,
	)
}

func (n *DiscordNotifier) NotifyPayment(trip models.Trip, reg models.Registration, amount float64, provider string) error {
	if n == nil || n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, PaymentMessage(trip, reg, amount, provider))
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}
