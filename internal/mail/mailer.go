package mail

import (
	"context"
	"log"
)

type Message struct {
	Name    string
	From    string
	Subject string
	Body    string
}

// Mailer is the outbound mail collaborator. Actual SMTP delivery lives
// outside this service; deployments plug in their own implementation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records contact messages in the server log. Used when no mail
// transport is configured.
type LogMailer struct {
	Inbox string
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("CONTACT [to %s] from %s <%s>: %s", m.Inbox, msg.Name, msg.From, msg.Subject)
	return nil
}
