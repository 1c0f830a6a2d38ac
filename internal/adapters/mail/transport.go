// Package mail selects the outgoing mail transport from configuration.
package mail

import (
	"fmt"

	"github.com/luxeladies/community-api/internal/adapters/mail/logmail"
	"github.com/luxeladies/community-api/internal/adapters/mail/smtp"
	"github.com/luxeladies/community-api/internal/platform/config"
	"github.com/luxeladies/community-api/internal/platform/log"
	"github.com/luxeladies/community-api/internal/ports/out/mailer"
)

// NewTransport returns the sender named by MAIL_TRANSPORT.
func NewTransport(cfg config.MailConfig, logger *log.Logger) (mailer.Sender, error) {
	switch cfg.MailTransport {
	case "smtp":
		return smtp.NewSender(smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			TLS:      cfg.SMTPTLS,
		}), nil
	case "log", "":
		return logmail.NewSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}
