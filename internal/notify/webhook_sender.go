package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"netwarden/internal/domain"
)

// webhookConfig is the sink configuration carried in a webhook channel's
// opaque config JSON.
type webhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// alertPayload is the JSON body posted for a single alert.
type alertPayload struct {
	EntryID    string            `json:"entry_id"`
	EventType  string            `json:"eventType"`
	Severity   domain.Severity   `json:"severity"`
	Source     string            `json:"source"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DeviceID   string            `json:"deviceId,omitempty"`
	DeviceName string            `json:"deviceName,omitempty"`
	DeviceIP   string            `json:"deviceIp,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
	IncidentID string            `json:"incident_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// digestPayload is the JSON body posted for a digest batch.
type digestPayload struct {
	Summary Summary         `json:"summary"`
	Entries []*alertPayload `json:"entries"`
}

// WebhookSender delivers notifications as JSON POSTs to a configured URL.
type WebhookSender struct {
	client *http.Client
}

// NewWebhookSender creates a webhook sender with a bounded HTTP client.
func NewWebhookSender(timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts a single alert to the channel's webhook URL.
func (s *WebhookSender) Send(ctx context.Context, event *domain.Event, entry *domain.HistoryEntry, channel *domain.Channel) error {
	payload := entryPayload(entry)
	return s.post(ctx, channel, payload)
}

// SendDigest posts a collapsed batch plus summary to the webhook URL.
func (s *WebhookSender) SendDigest(ctx context.Context, entries []*domain.HistoryEntry, channel *domain.Channel, summary Summary) error {
	payload := digestPayload{Summary: summary}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, entryPayload(entry))
	}
	return s.post(ctx, channel, payload)
}

func (s *WebhookSender) post(ctx context.Context, channel *domain.Channel, payload interface{}) error {
	var cfg webhookConfig
	if err := json.Unmarshal([]byte(channel.Config), &cfg); err != nil {
		return fmt.Errorf("invalid webhook config for channel %s: %w", channel.ID, err)
	}
	if cfg.URL == "" {
		return fmt.Errorf("webhook config for channel %s has no url", channel.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func entryPayload(entry *domain.HistoryEntry) *alertPayload {
	return &alertPayload{
		EntryID:    entry.ID,
		EventType:  entry.EventType,
		Severity:   entry.Severity,
		Source:     entry.Source,
		Title:      entry.Title,
		Message:    entry.Message,
		DeviceID:   entry.DeviceID,
		DeviceName: entry.DeviceName,
		DeviceIP:   entry.DeviceIP,
		Context:    entry.Context,
		IncidentID: entry.IncidentID,
		Timestamp:  entry.TriggeredAt,
	}
}
