package notify

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPNotifier delivers notifications through a plain SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, username, password string) *SMTPNotifier {
	return &SMTPNotifier{dialer: gomail.NewDialer(host, port, username, password)}
}

func (n *SMTPNotifier) Name() string { return "smtp" }

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/plain", msg.Body)

	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
