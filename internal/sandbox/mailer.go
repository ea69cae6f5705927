package sandbox

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Mail is an outgoing message
type Mail struct {
	To      string
	Subject string
	Link    string
	Token   string
}

// Mailer delivers mail. The sandbox never sends real email.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// LogMailer writes every message to the log so a developer can copy the link
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer that logs
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	m.logger.Info().
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Str("link", mail.Link).
		Str("token", mail.Token).
		Msg("mail (not delivered)")
	return nil
}

// Outbox keeps sent mail in memory
type Outbox struct {
	mu   sync.Mutex
	sent []Mail
}

func (o *Outbox) Send(ctx context.Context, mail Mail) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, mail)
	return nil
}

// Last returns the most recent mail sent to addr
func (o *Outbox) Last(addr string) (Mail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == addr {
			return o.sent[i], true
		}
	}
	return Mail{}, false
}

// Len returns the number of messages sent
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}
