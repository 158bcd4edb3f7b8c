package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/torrkit/seedsweep/internal/core"
)

// Event types for notifications
type EventType string

const (
	EventSweepCompleted EventType = "sweep_completed"
	EventSweepFailed    EventType = "sweep_failed"
	EventDaemonStarted  EventType = "daemon_started"
	EventDaemonStopped  EventType = "daemon_stopped"
)

// Payload is the JSON body sent to webhook endpoints.
type Payload struct {
	Event     EventType        `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Hostname  string           `json:"hostname,omitempty"`
	Summary   *core.RunSummary `json:"summary,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Notifier is the interface for sending run notifications.
type Notifier interface {
	Notify(ctx context.Context, payload Payload) error
}

// Config configures a webhook notification endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Webhook POSTs payloads to an HTTP endpoint.
type Webhook struct {
	cfg    Config
	client *http.Client
}

// NewWebhook creates a new webhook notifier.
func NewWebhook(cfg Config) *Webhook {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Notify sends one payload. Failures are returned, never retried here.
func (w *Webhook) Notify(ctx context.Context, payload Payload) error {
	if payload.Hostname == "" {
		payload.Hostname, _ = os.Hostname()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "seedsweep/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Noop does nothing, for when notifications are disabled.
type Noop struct{}

func (Noop) Notify(context.Context, Payload) error { return nil }
