package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers admin notification emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message. Used when notifications are disabled.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(ctx context.Context, msg Message) error {
	return nil
}
