package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netwarden/internal/domain"
)

func webhookChannel(url string) *domain.Channel {
	return &domain.Channel{
		ID:      "ch-1",
		Name:    "ops-webhook",
		Enabled: true,
		Type:    domain.ChannelTypeWebhook,
		Config:  fmt.Sprintf(`{"url":%q,"headers":{"X-Token":"secret"}}`, url),
	}
}

func sampleEntry() *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:          "entry-1",
		RuleID:      "rule-1",
		EventType:   "interface.down",
		Severity:    domain.SeverityError,
		Source:      "poller.core",
		Title:       "Interface down",
		Message:     "GigabitEthernet0/1 went down",
		DeviceID:    "dev-1",
		TriggeredAt: time.Now().UTC(),
		Status:      domain.HistoryStatusActive,
	}
}

func TestWebhookSender_Send(t *testing.T) {
	var gotBody alertPayload
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	entry := sampleEntry()
	event := &domain.Event{Type: entry.EventType, Severity: entry.Severity, Source: entry.Source, Title: entry.Title}

	err := sender.Send(context.Background(), event, entry, webhookChannel(server.URL))
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if gotBody.EntryID != "entry-1" {
		t.Errorf("EntryID = %q, want entry-1", gotBody.EntryID)
	}
	if gotBody.EventType != "interface.down" {
		t.Errorf("EventType = %q, want interface.down", gotBody.EventType)
	}
	if gotHeader != "secret" {
		t.Errorf("X-Token header = %q, want secret", gotHeader)
	}
}

func TestWebhookSender_SendDigest(t *testing.T) {
	var gotBody digestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	entries := []*domain.HistoryEntry{sampleEntry()}
	summary := Summarize(entries, time.Now().Add(-24*time.Hour), time.Now())

	err := sender.SendDigest(context.Background(), entries, webhookChannel(server.URL), summary)
	if err != nil {
		t.Fatalf("SendDigest error: %v", err)
	}
	if len(gotBody.Entries) != 1 {
		t.Fatalf("digest entries = %d, want 1", len(gotBody.Entries))
	}
	if gotBody.Summary.Total != 1 {
		t.Errorf("summary Total = %d, want 1", gotBody.Summary.Total)
	}
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	entry := sampleEntry()
	event := &domain.Event{Type: entry.EventType, Severity: entry.Severity}

	err := sender.Send(context.Background(), event, entry, webhookChannel(server.URL))
	if err == nil {
		t.Fatal("Send should fail on a 502 response")
	}
}

func TestWebhookSender_InvalidConfig(t *testing.T) {
	sender := NewWebhookSender(5 * time.Second)
	entry := sampleEntry()
	event := &domain.Event{Type: entry.EventType, Severity: entry.Severity}

	tests := []struct {
		name   string
		config string
	}{
		{"malformed json", "{not json"},
		{"missing url", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel := webhookChannel("http://example.invalid")
			channel.Config = tt.config
			if err := sender.Send(context.Background(), event, entry, channel); err == nil {
				t.Error("Send should fail for bad config")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	entries := []*domain.HistoryEntry{
		{Severity: domain.SeverityInfo},
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityCritical},
	}

	summary := Summarize(entries, from, to)
	if summary.Total != 4 {
		t.Errorf("Total = %d, want 4", summary.Total)
	}
	if summary.BySeverity[domain.SeverityError] != 2 {
		t.Errorf("error count = %d, want 2", summary.BySeverity[domain.SeverityError])
	}
	if summary.BySeverity[domain.SeverityInfo] != 1 {
		t.Errorf("info count = %d, want 1", summary.BySeverity[domain.SeverityInfo])
	}
	if !summary.From.Equal(from) || !summary.To.Equal(to) {
		t.Error("summary window should carry the requested bounds")
	}
}
