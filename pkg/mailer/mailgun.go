package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

var ErrMailgunNotConfigured = errors.New("mailgun domain or api key missing")

// Mailgun delivers jobs through the Mailgun HTTP API.
type Mailgun struct {
	client  *mg.MailgunImpl
	sender  string
	timeout time.Duration
}

// NewMailgun builds a Mailgun sender. apiBase overrides the API endpoint when non-empty.
func NewMailgun(domain, apiKey, sender string, apiBase ...string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if len(apiBase) > 0 && apiBase[0] != "" {
		client.SetAPIBase(apiBase[0])
	}
	return &Mailgun{client: client, sender: sender, timeout: 10 * time.Second}
}

// Send sends one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	if m.client.Domain() == "" || m.client.APIKey() == "" {
		return ErrMailgunNotConfigured
	}
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}

// Deliver composes job and sends it through Mailgun.
func (m *Mailgun) Deliver(ctx context.Context, job EmailJob) error {
	subject, text, html, err := Compose(job)
	if err != nil {
		return err
	}
	return m.Send(ctx, job.To, subject, text, html)
}
