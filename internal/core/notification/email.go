package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

// Email APIs supported by EmailSink
const (
	EmailResend = "resend"
	EmailBrevo  = "brevo"
)

var emailEndpoints = map[string]string{
	EmailResend: "https://api.resend.com/emails",
	EmailBrevo:  "https://api.brevo.com/v3/smtp/email",
}

// EmailConfig configures EmailSink
type EmailConfig struct {
	Provider  string // resend or brevo
	APIKey    string
	FromEmail string
	FromName  string
	To        string
	Endpoint  string // overrides the provider URL
}

// EmailSink mails notifications through a transactional email API
type EmailSink struct {
	cfg    EmailConfig
	client *http.Client
}

// NewEmailSink creates an email sink. Unknown providers fail on Configure.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	cfg.Provider = strings.ToLower(cfg.Provider)
	if cfg.Endpoint == "" {
		cfg.Endpoint = emailEndpoints[cfg.Provider]
	}
	return &EmailSink{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the sink name
func (s *EmailSink) Name() string { return "email:" + s.cfg.Provider }

// Configure validates the sink settings
func (s *EmailSink) Configure(context.Context) error {
	if _, ok := emailEndpoints[s.cfg.Provider]; !ok {
		return fmt.Errorf("unknown email provider %q", s.cfg.Provider)
	}
	if s.cfg.APIKey == "" || s.cfg.FromEmail == "" || s.cfg.To == "" {
		return fmt.Errorf("email sink needs api key, sender and recipient")
	}
	return nil
}

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Send mails n to the configured recipient
func (s *EmailSink) Send(ctx context.Context, n Notification) error {
	subject := n.Title
	body := renderEmail(n)

	var payload any
	switch s.cfg.Provider {
	case EmailResend:
		from := s.cfg.FromEmail
		if s.cfg.FromName != "" {
			from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
		}
		payload = resendEmailRequest{From: from, To: []string{s.cfg.To}, Subject: subject, HTML: body}
	case EmailBrevo:
		payload = brevoEmailRequest{
			Sender:      brevoContact{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
			To:          []brevoContact{{Email: s.cfg.To}},
			Subject:     subject,
			HTMLContent: body,
		}
	default:
		return fmt.Errorf("unknown email provider %q", s.cfg.Provider)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Provider == EmailBrevo {
		req.Header.Set("api-key", s.cfg.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API error (status %d): %s", s.cfg.Provider, resp.StatusCode, string(b))
	}
	return nil
}

func renderEmail(n Notification) string {
	return fmt.Sprintf("<h3>%s</h3><p>%s</p><p><small>notification %d</small></p>",
		html.EscapeString(n.Title), html.EscapeString(n.Message), n.ID)
}
