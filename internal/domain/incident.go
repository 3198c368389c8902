package domain

import (
	"errors"
	"time"
)

// ErrIncidentNotFound is returned when an incident cannot be found.
var ErrIncidentNotFound = errors.New("incident not found")

// IncidentStatus represents the current state of an incident.
type IncidentStatus string

const (
	// IncidentStatusActive indicates the incident is still accepting alerts.
	IncidentStatusActive IncidentStatus = "active"
	// IncidentStatusResolved indicates the incident has been closed.
	IncidentStatusResolved IncidentStatus = "resolved"
)

// Incident aggregates alerts sharing a correlation key within a time window.
// Its severity is the max of its constituent alerts, lastTriggeredAt only
// moves forward, and alertCount is always at least one.
type Incident struct {
	// ID is the unique identifier for this incident.
	ID string `json:"id"`

	// CorrelationKey groups alerts likely caused by the same condition,
	// e.g. "device:10.0.0.5" or "source:audit".
	CorrelationKey string `json:"correlation_key"`

	// Severity is the maximum severity across constituent alerts.
	Severity Severity `json:"severity"`

	// AlertCount is the number of alerts folded into this incident.
	AlertCount int `json:"alert_count"`

	// FirstTriggeredAt is when the first constituent alert fired.
	FirstTriggeredAt time.Time `json:"first_triggered_at"`

	// LastTriggeredAt is when the most recent constituent alert fired.
	LastTriggeredAt time.Time `json:"last_triggered_at"`

	// Status indicates whether the incident is active or resolved.
	Status IncidentStatus `json:"status"`
}

// NewIncident creates an incident seeded from a single alert.
func NewIncident(key string, severity Severity, triggeredAt time.Time) *Incident {
	return &Incident{
		CorrelationKey:   key,
		Severity:         severity,
		AlertCount:       1,
		FirstTriggeredAt: triggeredAt,
		LastTriggeredAt:  triggeredAt,
		Status:           IncidentStatusActive,
	}
}

// Absorb folds another alert into the incident: the count is incremented,
// lastTriggeredAt is bumped, and severity is raised if the alert is worse.
func (i *Incident) Absorb(severity Severity, triggeredAt time.Time) {
	i.AlertCount++
	if triggeredAt.After(i.LastTriggeredAt) {
		i.LastTriggeredAt = triggeredAt
	}
	i.Severity = MaxSeverity(i.Severity, severity)
}

// IsActive returns true if the incident is currently active.
func (i *Incident) IsActive() bool {
	return i.Status == IncidentStatusActive
}

// Resolve marks the incident as resolved.
func (i *Incident) Resolve() {
	i.Status = IncidentStatusResolved
}
