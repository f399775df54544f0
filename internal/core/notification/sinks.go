package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes notifications to the structured log
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink on the global logger
func NewLogSink() *LogSink {
	return &LogSink{logger: log.Logger}
}

// Name returns the sink name
func (s *LogSink) Name() string { return "log" }

// Send logs n at a level matching its severity
func (s *LogSink) Send(_ context.Context, n Notification) error {
	event := s.logger.Info()
	if n.Level == LevelError {
		event = s.logger.Error()
	}
	event.Int("notification_id", n.ID).Str("title", n.Title).Msg("🔔 " + n.Message)
	return nil
}

// WebhookSink posts notifications as JSON to a push endpoint
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for url
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the sink name
func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Notification
	Priority string `json:"priority"`
	SentAt   string `json:"sent_at"`
}

// Send posts n to the webhook URL
func (s *WebhookSink) Send(ctx context.Context, n Notification) error {
	priority := "default"
	if n.Level == LevelError {
		priority = "high"
	}
	body, err := json.Marshal(webhookPayload{
		Notification: n,
		Priority:     priority,
		SentAt:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error (status: %d): %s", resp.StatusCode, string(b))
	}
	return nil
}
