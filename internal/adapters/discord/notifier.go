package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/luxeladies/community-api/internal/domain"
)

// ChannelSender is the part of *discordgo.Session the notifier uses.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts operator alerts to a Discord channel.
type Notifier struct {
	session   ChannelSender
	channelID string
}

func NewNotifier(session ChannelSender, channelID string) *Notifier {
	return &Notifier{session: session, channelID: channelID}
}

// NewSessionNotifier opens a bot session for token.
func NewSessionNotifier(token, channelID string) (*Notifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return NewNotifier(s, channelID), nil
}

func (n *Notifier) MemberRegistered(ctx context.Context, m domain.Member) error {
	msg := fmt.Sprintf("🆕 **New member awaiting approval**\n**Handle:** %s\n**Name:** %s\n**Age:** %d\n**City:** %s\n**Studies/Works:** %s",
		m.Handle,
		m.DisplayName(),
		m.Age,
		orDash(m.City),
		studiesWorks(m),
	)
	return n.send(ctx, msg)
}

func (n *Notifier) RegistrationCreated(ctx context.Context, m domain.Member, e domain.Event, r domain.EventRegistration) error {
	child := ""
	if r.ChildName != nil && r.ChildAge != nil {
		child = fmt.Sprintf("\n**Child:** %s (%d)", *r.ChildName, *r.ChildAge)
	}
	msg := fmt.Sprintf("🎟️ **New event registration**\n**Event:** %s (%s)\n**Member:** %s (%s)\n**Name:** %s%s",
		e.Title,
		e.StartsAt.Format("2006-01-02 15:04"),
		m.Handle,
		orDash(m.Email),
		r.FullName,
		child,
	)
	return n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, msg string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	_, err := n.session.ChannelMessageSend(n.channelID, msg, discordgo.WithContext(ctx))
	return err
}

func studiesWorks(m domain.Member) string {
	switch {
	case m.Studies && m.Works:
		return "studies, works"
	case m.Studies:
		return "studies"
	case m.Works:
		return "works"
	default:
		return "neither"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
