package mail

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPConfig holds plain-auth SMTP credentials.
type SMTPConfig struct {
	Host string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port string `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
}

// SMTP sends messages through an SMTP relay with the submitter as Reply-To.
type SMTP struct {
	cfg      SMTPConfig
	to       string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP returns an SMTP sender delivering to the address to.
func NewSMTP(cfg SMTPConfig, to string) *SMTP {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &SMTP{cfg: cfg, to: to, sendMail: smtp.SendMail}
}

func (s *SMTP) Name() string { return "smtp" }

// Send delivers the message. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if s.cfg.User == "" || s.cfg.Pass == "" {
		return fmt.Errorf("smtp: %w", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.sendMail(addr, auth, s.cfg.User, []string{s.to}, s.compose(msg)); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *SMTP) compose(msg Message) []byte {
	topic := oneLine(msg.Subject)
	subject := fmt.Sprintf("Portfolio Contact: %s", topic)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, topic, msg.Body)

	return []byte("To: " + s.to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + s.cfg.User + "\r\n" +
		"Reply-To: " + oneLine(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// oneLine keeps user input from injecting extra headers.
func oneLine(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\r' || r == '\n' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
