package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single message to one recipient
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the outbound mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the SMTP envelope sender, a raw mailbox address
	From string
}

// SMTPSender sends plain-text mail over SMTP
type SMTPSender struct {
	config SMTPConfig
	auth   smtp.Auth
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	return &SMTPSender{
		config: config,
		auth:   auth,
	}
}

// SendMail sends one message. Header values are stripped of CR/LF so
// recipient data can never inject extra headers.
func (s *SMTPSender) SendMail(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	msg := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(s.config.From)),
		fmt.Sprintf("To: %s", sanitizeHeader(to)),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}
	data := []byte(strings.Join(msg, "\r\n"))

	if s.auth != nil {
		return smtp.SendMail(addr, s.auth, s.config.From, []string{to}, data)
	}

	// No auth - connect directly
	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return c.Quit()
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

var _ Mailer = (*SMTPSender)(nil)
