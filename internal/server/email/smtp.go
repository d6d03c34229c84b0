package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier delivers mail through a plain SMTP relay. TLS and auth are the
// relay's concern; deployments point this at a local forwarder.
type SMTPNotifier struct {
	addr         string
	from         string
	resetURLBase string
}

func NewSMTPNotifier(addr string, from string, resetURLBase string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from, resetURLBase: resetURLBase}
}

func (n *SMTPNotifier) SendWelcomeEmail(ctx context.Context, to string, firstName string) error {
	greeting := "Hello"
	if firstName != "" {
		greeting = "Hello " + firstName
	}
	body := fmt.Sprintf("%s,\r\n\r\nYour account has been created. You can now sign in and start uploading files.\r\n", greeting)
	return n.send(to, "Welcome", body)
}

func (n *SMTPNotifier) SendPasswordResetEmail(ctx context.Context, to string, token string) error {
	link := strings.TrimRight(n.resetURLBase, "/") + "?token=" + token
	body := fmt.Sprintf("Hello,\r\n\r\nA password reset was requested for this address. Follow the link below within one hour to choose a new password:\r\n\r\n%s\r\n\r\nIf you did not request this, ignore this message.\r\n", link)
	return n.send(to, "Password reset", body)
}

func (n *SMTPNotifier) send(to string, subject string, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.from, to, subject, body)
	if err := smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
