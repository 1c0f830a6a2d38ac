package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	// HTML is the optional alternative part; empty means text-only.
	HTML string
}

// Sender delivers messages through an email transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
