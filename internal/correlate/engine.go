// Package correlate groups matching alerts into time-windowed incidents
// keyed by device or event-source prefix.
package correlate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"netwarden/internal/domain"
	"netwarden/internal/metrics"
	"netwarden/internal/store"
)

// Window is how long an active incident keeps absorbing alerts with the
// same correlation key.
const Window = 30 * time.Minute

// Engine folds related alerts into incidents. Correlation is an
// enrichment: any repository failure degrades to "no incident" instead of
// failing the alert.
type Engine struct {
	incidents store.IncidentRepository
	logger    *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a correlation engine over the given incident repository.
func NewEngine(incidents store.IncidentRepository, logger *slog.Logger) *Engine {
	return &Engine{
		incidents: incidents,
		logger:    logger,
		now:       time.Now,
	}
}

// Key derives the correlation key for an event. Device identity takes
// precedence: "device:{deviceIp}" when the event carries an IP, else
// "source:{prefix}" from the event type's first dotted segment. Events
// with neither return empty string and are not correlated.
func Key(event *domain.Event) string {
	if event.DeviceIP != "" {
		return "device:" + event.DeviceIP
	}
	if prefix := event.SourcePrefix(); prefix != "" {
		return "source:" + prefix
	}
	return ""
}

// Correlate folds the alert into the most recent active incident with the
// same key if one fired within the window, otherwise opens a new incident
// seeded from this event. Returns nil when the event has no correlation
// key or when the repository fails.
func (e *Engine) Correlate(ctx context.Context, event *domain.Event, entry *domain.HistoryEntry) *domain.Incident {
	key := Key(event)
	if key == "" {
		return nil
	}

	existing, err := e.incidents.GetActiveByKey(ctx, key)
	if err != nil {
		e.logger.Warn("incident lookup failed, skipping correlation",
			"key", key,
			"eventType", event.Type,
			"error", err,
		)
		return nil
	}

	now := e.now().UTC()

	if existing != nil && now.Sub(existing.LastTriggeredAt) < Window {
		existing.Absorb(event.Severity, entry.TriggeredAt)
		if err := e.incidents.Update(ctx, existing); err != nil {
			e.logger.Warn("incident update failed, skipping correlation",
				"incidentID", existing.ID,
				"error", err,
			)
			return nil
		}
		metrics.IncidentsExtendedTotal.Inc()
		return existing
	}

	incident := domain.NewIncident(key, event.Severity, entry.TriggeredAt)
	incident.ID = uuid.New().String()
	if err := e.incidents.Create(ctx, incident); err != nil {
		e.logger.Warn("incident create failed, skipping correlation",
			"key", key,
			"error", err,
		)
		return nil
	}
	metrics.IncidentsCreatedTotal.Inc()
	return incident
}
