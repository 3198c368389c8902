// Package store defines interfaces for data persistence and state management.
// These abstractions allow swapping implementations (PostgreSQL, Redis,
// in-memory) without changing business logic.
package store

import (
	"context"
	"time"

	"netwarden/internal/domain"
)

// RuleRepository defines the interface for persistent rule storage.
type RuleRepository interface {
	// Create stores a new rule.
	Create(ctx context.Context, rule *domain.Rule) error

	// Update modifies an existing rule.
	Update(ctx context.Context, rule *domain.Rule) error

	// Delete removes a rule by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a rule by its ID.
	GetByID(ctx context.Context, id string) (*domain.Rule, error)

	// List retrieves all rules.
	List(ctx context.Context) ([]*domain.Rule, error)

	// ListEnabled retrieves all enabled rules. This is the read shape the
	// pipeline's rule cache refreshes from.
	ListEnabled(ctx context.Context) ([]*domain.Rule, error)
}

// ChannelRepository defines the interface for delivery channel persistence.
type ChannelRepository interface {
	// Create stores a new channel.
	Create(ctx context.Context, channel *domain.Channel) error

	// Update modifies an existing channel.
	Update(ctx context.Context, channel *domain.Channel) error

	// Delete removes a channel by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a channel by its ID.
	GetByID(ctx context.Context, id string) (*domain.Channel, error)

	// List retrieves all channels.
	List(ctx context.Context) ([]*domain.Channel, error)

	// ListEnabled retrieves all enabled channels.
	ListEnabled(ctx context.Context) ([]*domain.Channel, error)
}

// HistoryRepository defines the interface for alert history persistence.
type HistoryRepository interface {
	// Create stores a new history entry.
	Create(ctx context.Context, entry *domain.HistoryEntry) error

	// LinkIncident sets the incident reference on an entry.
	LinkIncident(ctx context.Context, entryID, incidentID string) error

	// UpdateDeliveryOutcome records the delivery result on an entry.
	UpdateDeliveryOutcome(ctx context.Context, entryID string, outcome domain.DeliveryOutcome) error

	// UpdateStatus persists a lifecycle change (acknowledge/resolve).
	UpdateStatus(ctx context.Context, entry *domain.HistoryEntry) error

	// GetByID retrieves a history entry by its ID.
	GetByID(ctx context.Context, id string) (*domain.HistoryEntry, error)

	// List retrieves entries matching the filter criteria.
	List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error)

	// ListSince retrieves all entries triggered at or after the given
	// instant, oldest first. This is the digest read shape.
	ListSince(ctx context.Context, since time.Time) ([]*domain.HistoryEntry, error)
}

// IncidentRepository defines the interface for incident persistence.
type IncidentRepository interface {
	// Create stores a new incident.
	Create(ctx context.Context, incident *domain.Incident) error

	// Update modifies an existing incident.
	Update(ctx context.Context, incident *domain.Incident) error

	// GetByID retrieves an incident by its ID.
	GetByID(ctx context.Context, id string) (*domain.Incident, error)

	// GetActiveByKey retrieves the most recent active incident with the
	// given correlation key. Returns nil, nil if none exists.
	GetActiveByKey(ctx context.Context, key string) (*domain.Incident, error)

	// List retrieves incidents, most recent first.
	List(ctx context.Context, limit, offset int) ([]*domain.Incident, error)
}
