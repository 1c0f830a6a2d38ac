package mail

import (
	"testing"

	"github.com/luxeladies/community-api/internal/adapters/mail/logmail"
	"github.com/luxeladies/community-api/internal/adapters/mail/smtp"
	"github.com/luxeladies/community-api/internal/platform/config"
	"github.com/luxeladies/community-api/internal/platform/log"
)

func TestNewTransport(t *testing.T) {
	t.Parallel()

	s, err := NewTransport(config.MailConfig{MailTransport: "log"}, log.Discard())
	if err != nil {
		t.Fatalf("NewTransport(log) err=%v", err)
	}
	if _, ok := s.(*logmail.Sender); !ok {
		t.Fatalf("NewTransport(log)=%T, want *logmail.Sender", s)
	}

	s, err = NewTransport(config.MailConfig{MailTransport: "smtp", SMTPHost: "mail.example.com", SMTPPort: 587, SMTPTLS: "mandatory"}, log.Discard())
	if err != nil {
		t.Fatalf("NewTransport(smtp) err=%v", err)
	}
	if _, ok := s.(*smtp.Sender); !ok {
		t.Fatalf("NewTransport(smtp)=%T, want *smtp.Sender", s)
	}

	if _, err := NewTransport(config.MailConfig{MailTransport: "pigeon"}, log.Discard()); err == nil {
		t.Fatalf("NewTransport(pigeon) err=nil, want error")
	}
}
