package outbox

import (
	"context"
	"sync"

	"github.com/luxeladies/community-api/internal/ports/out/mailer"
)

// Outbox is a mailer.Sender that records messages instead of delivering them.
// It is safe for concurrent use.
type Outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail error
}

func New() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(ctx context.Context, msg mailer.Message) error {
	_ = ctx
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	msg.To = append([]string(nil), msg.To...)
	o.sent = append(o.sent, msg)
	return nil
}

// FailWith makes subsequent sends return err; nil restores delivery.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

// Messages returns a copy of the recorded messages in send order.
func (o *Outbox) Messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

// Reset forgets recorded messages.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = nil
}
