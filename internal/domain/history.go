package domain

import (
	"errors"
	"time"
)

// ErrHistoryEntryNotFound is returned when a history entry cannot be found.
var ErrHistoryEntryNotFound = errors.New("history entry not found")

// HistoryStatus represents the lifecycle state of a history entry.
type HistoryStatus string

const (
	// HistoryStatusActive indicates the alert has not been acted on yet.
	HistoryStatusActive HistoryStatus = "active"
	// HistoryStatusAcknowledged indicates an operator has seen the alert.
	HistoryStatusAcknowledged HistoryStatus = "acknowledged"
	// HistoryStatusResolved indicates the underlying condition is resolved.
	HistoryStatusResolved HistoryStatus = "resolved"
)

// HistoryEntry is the persisted record of one rule match: a snapshot of the
// triggering event plus correlation linkage and the delivery outcome.
// Created once, then updated at most twice (incident link, delivery outcome).
type HistoryEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// RuleID references the rule that matched.
	RuleID string `json:"rule_id"`

	// Snapshot of the triggering event.
	EventType  string            `json:"eventType"`
	Severity   Severity          `json:"severity"`
	Source     string            `json:"source"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DeviceID   string            `json:"deviceId,omitempty"`
	DeviceName string            `json:"deviceName,omitempty"`
	DeviceIP   string            `json:"deviceIp,omitempty"`
	Context    map[string]string `json:"context,omitempty"`

	// TriggeredAt is when the rule matched.
	TriggeredAt time.Time `json:"triggered_at"`

	// IncidentID links the entry to a correlated incident, if any.
	IncidentID string `json:"incident_id,omitempty"`

	// DeliveredTo is the comma-joined list of channel IDs that accepted
	// the notification.
	DeliveredTo string `json:"delivered_to_channels,omitempty"`

	// DeliverySucceeded is true iff at least one channel accepted the
	// notification and no channel errored.
	DeliverySucceeded bool `json:"delivery_succeeded"`

	// DeliveryError holds semicolon-joined per-channel error strings.
	DeliveryError string `json:"delivery_error,omitempty"`

	// Status is the lifecycle state of the entry.
	Status HistoryStatus `json:"status"`

	// AcknowledgedAt is when an operator acknowledged the alert, if ever.
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`

	// ResolvedAt is when the alert was resolved, if ever.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewHistoryEntry creates a history entry snapshotting the given event
// for the given rule.
func NewHistoryEntry(rule *Rule, event *Event, triggeredAt time.Time) *HistoryEntry {
	return &HistoryEntry{
		RuleID:      rule.ID,
		EventType:   event.Type,
		Severity:    event.Severity,
		Source:      event.Source,
		Title:       event.Title,
		Message:     event.Message,
		DeviceID:    event.DeviceID,
		DeviceName:  event.DeviceName,
		DeviceIP:    event.DeviceIP,
		Context:     event.Context,
		TriggeredAt: triggeredAt,
		Status:      HistoryStatusActive,
	}
}

// Acknowledge marks the entry as acknowledged.
func (h *HistoryEntry) Acknowledge() {
	now := time.Now().UTC()
	h.Status = HistoryStatusAcknowledged
	h.AcknowledgedAt = &now
}

// Resolve marks the entry as resolved.
func (h *HistoryEntry) Resolve() {
	now := time.Now().UTC()
	h.Status = HistoryStatusResolved
	h.ResolvedAt = &now
}

// DeliveryOutcome aggregates the result of fanning one alert out to all
// eligible channels.
type DeliveryOutcome struct {
	// DeliveredTo is the comma-joined IDs of channels that accepted.
	DeliveredTo string

	// Succeeded is true iff at least one delivery succeeded and no
	// channel errored.
	Succeeded bool

	// Error is the semicolon-joined per-channel error strings.
	Error string
}

// HistoryFilter provides filtering options for querying history entries.
type HistoryFilter struct {
	RuleID     string
	Status     HistoryStatus
	Severity   Severity
	Source     string
	IncidentID string
	Limit      int
	Offset     int
}
