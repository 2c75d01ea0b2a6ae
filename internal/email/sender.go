// Package email is the outbound mail adapter: SMTP transport via
// go-mail with per-descriptor credentials, plus subject and body
// rendering for the conversation builder.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"bidrelay_backend/internal/conversation"
)

// Sender delivers one descriptor's message. Implementations must treat
// any returned error as a transport failure eligible for retry.
type Sender interface {
	Send(ctx context.Context, d conversation.Descriptor) error
}

// SMTPSender sends through the SMTP account captured in each
// descriptor. Every company sends from its own server, so the client is
// built per message rather than held.
type SMTPSender struct {
	timeout time.Duration
}

// NewSMTPSender creates an SMTPSender with a per-send dial timeout.
func NewSMTPSender() *SMTPSender {
	return &SMTPSender{timeout: 30 * time.Second}
}

// Compile-time check that SMTPSender implements Sender.
var _ Sender = (*SMTPSender)(nil)

// Send delivers the descriptor's message, including CC and attachments.
func (s *SMTPSender) Send(ctx context.Context, d conversation.Descriptor) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(d.SMTP.FromName, d.SMTP.FromAddr); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(d.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	if len(d.CC) > 0 {
		if err := msg.Cc(d.CC...); err != nil {
			return fmt.Errorf("smtp cc: %w", err)
		}
	}
	msg.Subject(d.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, d.Body)

	for _, att := range d.Attachments {
		msg.AttachFile(att.Path, gomail.WithFileName(att.Filename))
	}

	client, err := gomail.NewClient(d.SMTP.Host,
		gomail.WithPort(d.SMTP.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(d.SMTP.Username),
		gomail.WithPassword(d.SMTP.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(s.timeout),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
