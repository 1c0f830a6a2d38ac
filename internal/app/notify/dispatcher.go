package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/luxeladies/community-api/internal/platform/log"
	"github.com/luxeladies/community-api/internal/ports/out/mailer"
)

// Dispatcher renders notifications and hands them to the mail transport.
type Dispatcher struct {
	renderer *Renderer
	sender   mailer.Sender
	from     string
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewDispatcher builds a dispatcher. A nil limiter means unthrottled.
func NewDispatcher(renderer *Renderer, sender mailer.Sender, from string, limiter *rate.Limiter, logger *log.Logger) *Dispatcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		from:     from,
		limiter:  limiter,
		logger:   logger,
	}
}

// Send delivers n to its recipient. It returns render or transport errors;
// callers log them and carry on.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	if n.To == "" {
		return nil
	}

	subject, err := d.renderer.Subject(n.Kind, n.Data)
	if err != nil {
		return err
	}
	text, err := d.renderer.RenderText(n.Kind, n.Data)
	if err != nil {
		return err
	}
	html, ok, err := d.renderer.TryRenderHTML(n.Kind, n.Data)
	if err != nil {
		d.logger.WithError(err).WithField("kind", n.Kind).Warn("html render failed; sending text only")
	}
	if !ok {
		html = ""
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttle: %w", err)
	}
	msg := mailer.Message{
		From:    d.from,
		To:      []string{n.To},
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s: %w", n.Kind, err)
	}
	d.logger.WithFields(log.Fields{"kind": n.Kind, "html": ok}).Debug("notification sent")
	return nil
}
