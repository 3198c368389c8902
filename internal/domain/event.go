// Package domain contains the core business entities and value objects for NetWarden.
// These models represent the ubiquitous language of the notification pipeline.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Severity represents the severity level of an event or alert.
// Severities are ordered: Info < Warning < Error < Critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// severityRank maps each severity to its position in the ordering.
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the numeric position of the severity in the ordering.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast returns true if the severity is greater than or equal to min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// MaxSeverity returns the higher of the two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Event represents a raw domain event published by a producer
// (device monitor, security audit, threat collector, speed test, scheduler).
// Events are ephemeral: consumed once by the pipeline and not retained.
type Event struct {
	// Type is the dotted event type, e.g. "device.offline" or "audit.completed".
	Type string `json:"eventType"`

	// Severity indicates the event severity level.
	Severity Severity `json:"severity"`

	// Source tags the producing subsystem, e.g. "unifi" or "speedtest".
	Source string `json:"source"`

	// Title is a short human-readable headline.
	Title string `json:"title"`

	// Message is the full human-readable description.
	Message string `json:"message"`

	// DeviceID identifies the device the event concerns, if any.
	DeviceID string `json:"deviceId,omitempty"`

	// DeviceName is the human-readable device name, if any.
	DeviceName string `json:"deviceName,omitempty"`

	// DeviceIP is the device address, if any.
	DeviceIP string `json:"deviceIp,omitempty"`

	// Context carries arbitrary string key/value payload,
	// e.g. {"drop_percent": "42"}.
	Context map[string]string `json:"context,omitempty"`

	// OccurredAt is when the producer observed the condition.
	OccurredAt time.Time `json:"occurredAt"`
}

// Validation errors for Event.
var (
	ErrEmptyEventType  = errors.New("eventType is required")
	ErrInvalidSeverity = errors.New("severity must be 'info', 'warning', 'error', or 'critical'")
	ErrEmptySource     = errors.New("source is required")
	ErrEmptyTitle      = errors.New("title is required")
)

// Validate checks if the event has all required fields with valid values.
// Returns an error describing the first validation failure, or nil if valid.
func (e *Event) Validate() error {
	if e.Type == "" {
		return ErrEmptyEventType
	}
	if !e.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	if e.Source == "" {
		return ErrEmptySource
	}
	if e.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// DeviceKey returns the device identity used for per-device cooldown scoping:
// deviceId if present, else deviceIp, else "global".
func (e *Event) DeviceKey() string {
	if e.DeviceID != "" {
		return e.DeviceID
	}
	if e.DeviceIP != "" {
		return e.DeviceIP
	}
	return "global"
}

// SourcePrefix returns the segment of the event type before the first dot,
// or empty string if the type contains no dot.
func (e *Event) SourcePrefix() string {
	if idx := strings.Index(e.Type, "."); idx > 0 {
		return e.Type[:idx]
	}
	return ""
}
