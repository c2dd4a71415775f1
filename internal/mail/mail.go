// Package mail forwards contact form submissions to an email provider.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrNotConfigured is returned when provider credentials are missing.
	ErrNotConfigured = errors.New("mail provider not configured")
	// ErrInvalid is returned for contact messages that fail validation.
	ErrInvalid = errors.New("invalid contact message")
)

const maxMessageLen = 5000

// Config selects and configures the email provider.
type Config struct {
	Provider string        `env:"MAIL_PROVIDER" envDefault:"emailjs"`
	To       string        `env:"CONTACT_TO_EMAIL" envDefault:"giridharmalagi7@gmail.com"`
	EmailJS  EmailJSConfig `envPrefix:"EMAILJS_"`
	SMTP     SMTPConfig    `envPrefix:"SMTP_"`
}

// Sender delivers one contact message.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// New builds the Sender named by cfg.Provider.
func New(cfg Config) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "emailjs":
		return NewEmailJS(cfg.EmailJS, cfg.To), nil
	case "smtp":
		return NewSMTP(cfg.SMTP, cfg.To), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// Message is a contact form submission.
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// ValidationError lists the offending fields of a Message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid contact message: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

var policy = bluemonday.StrictPolicy()

// clean strips markup and surrounding whitespace from user input.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// Normalize returns the message with markup stripped and whitespace trimmed.
func (m Message) Normalize() Message {
	return Message{
		Name:    clean(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Subject: clean(m.Subject),
		Body:    clean(m.Body),
	}
}

// Validate reports missing or malformed fields.
func (m Message) Validate() error {
	fields := make(map[string]string)
	if m.Name == "" {
		fields["name"] = "Please enter your name."
	}
	if m.Email == "" {
		fields["email"] = "Please enter your email."
	} else if addr, err := mail.ParseAddress(m.Email); err != nil || addr.Address != m.Email {
		fields["email"] = "Please enter a valid email address."
	}
	if m.Subject == "" {
		fields["subject"] = "Please enter a subject."
	}
	if m.Body == "" {
		fields["message"] = "Please enter a message."
	} else if utf8.RuneCountInString(m.Body) > maxMessageLen {
		fields["message"] = fmt.Sprintf("Messages are limited to %d characters.", maxMessageLen)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// TestMessage is the message sent by the mail-test command.
func TestMessage() Message {
	return Message{
		Name:    "Test User",
		Email:   "test@example.com",
		Subject: "Test Email",
		Body:    "This is a test email to verify the contact form integration",
	}
}

// KeyStatus reports whether one configuration value is present.
type KeyStatus struct {
	Key     string
	Present bool
}

// Check lists the credentials the configured provider needs.
func Check(cfg Config) []KeyStatus {
	if strings.EqualFold(cfg.Provider, "smtp") {
		return []KeyStatus{
			{"SMTP_HOST", cfg.SMTP.Host != ""},
			{"SMTP_PORT", cfg.SMTP.Port != ""},
			{"SMTP_USER", cfg.SMTP.User != ""},
			{"SMTP_PASS", cfg.SMTP.Pass != ""},
		}
	}
	return []KeyStatus{
		{"EMAILJS_SERVICE_ID", cfg.EmailJS.ServiceID != ""},
		{"EMAILJS_TEMPLATE_ID", cfg.EmailJS.TemplateID != ""},
		{"EMAILJS_USER_ID", cfg.EmailJS.UserID != ""},
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
