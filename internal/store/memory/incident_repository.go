package memory

import (
	"context"
	"sort"
	"sync"

	"netwarden/internal/domain"
)

// IncidentRepository is an in-memory implementation of store.IncidentRepository.
type IncidentRepository struct {
	mu        sync.RWMutex
	incidents map[string]*domain.Incident
}

// NewIncidentRepository creates a new in-memory incident repository.
func NewIncidentRepository() *IncidentRepository {
	return &IncidentRepository{incidents: make(map[string]*domain.Incident)}
}

// Create stores a new incident.
func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incidentCopy := *incident
	r.incidents[incident.ID] = &incidentCopy
	return nil
}

// Update modifies an existing incident.
func (r *IncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.incidents[incident.ID]; !exists {
		return domain.ErrIncidentNotFound
	}
	incidentCopy := *incident
	r.incidents[incident.ID] = &incidentCopy
	return nil
}

// GetByID retrieves an incident by its ID.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, exists := r.incidents[id]
	if !exists {
		return nil, domain.ErrIncidentNotFound
	}
	result := *incident
	return &result, nil
}

// GetActiveByKey retrieves the most recent active incident with the given
// correlation key. Returns nil, nil if none exists.
func (r *IncidentRepository) GetActiveByKey(ctx context.Context, key string) (*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Incident
	for _, incident := range r.incidents {
		if incident.CorrelationKey != key || !incident.IsActive() {
			continue
		}
		if latest == nil || incident.LastTriggeredAt.After(latest.LastTriggeredAt) {
			latest = incident
		}
	}
	if latest == nil {
		return nil, nil
	}
	result := *latest
	return &result, nil
}

// List retrieves incidents, most recent first.
func (r *IncidentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Incident, 0, len(r.incidents))
	for _, incident := range r.incidents {
		incidentCopy := *incident
		result = append(result, &incidentCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastTriggeredAt.After(result[j].LastTriggeredAt)
	})

	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
