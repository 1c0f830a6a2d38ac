package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/luxeladies/community-api/internal/domain"
)

type fakeSession struct {
	channel string
	content []string
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = append(f.content, content)
	return &discordgo.Message{Content: content}, nil
}

func TestNotifier_MemberRegistered(t *testing.T) {
	t.Parallel()

	fs := &fakeSession{}
	n := NewNotifier(fs, "chan-1")
	err := n.MemberRegistered(context.Background(), domain.Member{Handle: "mia", FirstName: "Mia", LastName: "Ivanova", Age: 24, Works: true})
	if err != nil {
		t.Fatalf("MemberRegistered: %v", err)
	}
	if fs.channel != "chan-1" || len(fs.content) != 1 {
		t.Fatalf("sent to %q %d messages, want chan-1 / 1", fs.channel, len(fs.content))
	}
	for _, want := range []string{"mia", "Mia Ivanova", "works"} {
		if !strings.Contains(fs.content[0], want) {
			t.Fatalf("message %q missing %q", fs.content[0], want)
		}
	}
}

func TestNotifier_RegistrationCreatedIncludesChild(t *testing.T) {
	t.Parallel()

	fs := &fakeSession{}
	n := NewNotifier(fs, "chan-1")
	name, age := "Lia", 6
	err := n.RegistrationCreated(context.Background(),
		domain.Member{Handle: "mia", Email: "mia@example.com"},
		domain.Event{Title: "Picnic", StartsAt: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)},
		domain.EventRegistration{FullName: "Mia Ivanova", ChildName: &name, ChildAge: &age},
	)
	if err != nil {
		t.Fatalf("RegistrationCreated: %v", err)
	}
	for _, want := range []string{"Picnic", "2026-06-01 10:00", "mia@example.com", "Lia (6)"} {
		if !strings.Contains(fs.content[0], want) {
			t.Fatalf("message %q missing %q", fs.content[0], want)
		}
	}
}

func TestNotifier_RequiresChannel(t *testing.T) {
	t.Parallel()

	n := NewNotifier(&fakeSession{}, "")
	if err := n.MemberRegistered(context.Background(), domain.Member{}); err == nil {
		t.Fatalf("MemberRegistered without channel err=nil, want error")
	}
}
