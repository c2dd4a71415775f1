package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmailJSConfig holds the EmailJS REST credentials.
type EmailJSConfig struct {
	ServiceID   string        `env:"SERVICE_ID"`
	TemplateID  string        `env:"TEMPLATE_ID"`
	UserID      string        `env:"USER_ID"`
	AccessToken string        `env:"ACCESS_TOKEN"`
	Endpoint    string        `env:"ENDPOINT" envDefault:"https://api.emailjs.com/api/v1.0/email/send"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

func (c EmailJSConfig) configured() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.UserID != ""
}

// EmailJS sends messages through the EmailJS template API.
type EmailJS struct {
	cfg    EmailJSConfig
	to     string
	client *http.Client
}

// NewEmailJS returns an EmailJS sender delivering to the address to.
func NewEmailJS(cfg EmailJSConfig, to string) *EmailJS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.emailjs.com/api/v1.0/email/send"
	}
	return &EmailJS{
		cfg:    cfg,
		to:     to,
		client: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
}

func (e *EmailJS) Name() string { return "emailjs" }

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts the message to EmailJS.
func (e *EmailJS) Send(ctx context.Context, msg Message) error {
	if !e.cfg.configured() {
		return fmt.Errorf("emailjs: %w", ErrNotConfigured)
	}

	payload, err := json.Marshal(emailJSRequest{
		ServiceID:   e.cfg.ServiceID,
		TemplateID:  e.cfg.TemplateID,
		UserID:      e.cfg.UserID,
		AccessToken: e.cfg.AccessToken,
		TemplateParams: map[string]string{
			"from_name":  msg.Name,
			"from_email": msg.Email,
			"subject":    msg.Subject,
			"message":    msg.Body,
			"to_email":   e.to,
		},
	})
	if err != nil {
		return fmt.Errorf("emailjs: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("emailjs: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
