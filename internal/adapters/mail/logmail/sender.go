// Package logmail is a mail transport for development: it logs messages instead of sending them.
package logmail

import (
	"context"

	"github.com/luxeladies/community-api/internal/platform/log"
	"github.com/luxeladies/community-api/internal/ports/out/mailer"
)

type Sender struct {
	logger *log.Logger
}

func NewSender(logger *log.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	_ = ctx
	s.logger.WithFields(log.Fields{
		"from":     msg.From,
		"to":       msg.To,
		"subject":  msg.Subject,
		"has_html": msg.HTML != "",
		"text":     msg.Text,
		"type":     "mail",
	}).Info("mail not sent (log transport)")
	return nil
}
