package services

import (
	"fmt"
	"net/smtp"

	"github.com/ilask/weather-data/system"
)

// Notifier delivers urgent operator notifications.
type Notifier interface {
	Enabled() bool
	Send(subject, body string) error
}

// SMTPNotifier mails the operator address through a plain SMTP relay.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

// NewSMTPNotifier creates a new SMTPNotifier.
func NewSMTPNotifier(host string, port int, username, password, from, to string) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

// Enabled reports whether the relay and recipient are configured.
func (n *SMTPNotifier) Enabled() bool {
	return n.host != "" && n.to != ""
}

// Send delivers one plain-text message.
func (n *SMTPNotifier) Send(subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		n.from, n.to, subject, body,
	)

	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	err := smtp.SendMail(addr, auth, n.from, []string{n.to}, []byte(msg))
	system.RecordUpstreamCall("smtp", err)
	return err
}
