package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"netwarden/internal/domain"
)

// HistoryRepository is an in-memory implementation of store.HistoryRepository.
type HistoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.HistoryEntry
}

// NewHistoryRepository creates a new in-memory history repository.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{entries: make(map[string]*domain.HistoryEntry)}
}

// Create stores a new history entry.
func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryCopy := *entry
	r.entries[entry.ID] = &entryCopy
	return nil
}

// LinkIncident sets the incident reference on an entry.
func (r *HistoryRepository) LinkIncident(ctx context.Context, entryID, incidentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[entryID]
	if !exists {
		return domain.ErrHistoryEntryNotFound
	}
	entry.IncidentID = incidentID
	return nil
}

// UpdateDeliveryOutcome records the delivery result on an entry.
func (r *HistoryRepository) UpdateDeliveryOutcome(ctx context.Context, entryID string, outcome domain.DeliveryOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[entryID]
	if !exists {
		return domain.ErrHistoryEntryNotFound
	}
	entry.DeliveredTo = outcome.DeliveredTo
	entry.DeliverySucceeded = outcome.Succeeded
	entry.DeliveryError = outcome.Error
	return nil
}

// UpdateStatus persists a lifecycle change.
func (r *HistoryRepository) UpdateStatus(ctx context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.entries[entry.ID]
	if !exists {
		return domain.ErrHistoryEntryNotFound
	}
	existing.Status = entry.Status
	existing.AcknowledgedAt = entry.AcknowledgedAt
	existing.ResolvedAt = entry.ResolvedAt
	return nil
}

// GetByID retrieves a history entry by its ID.
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, domain.ErrHistoryEntryNotFound
	}
	result := *entry
	return &result, nil
}

// List retrieves entries matching the filter criteria, most recent first.
func (r *HistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.HistoryEntry
	for _, entry := range r.entries {
		if filter.RuleID != "" && entry.RuleID != filter.RuleID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && entry.Severity != filter.Severity {
			continue
		}
		if filter.Source != "" && entry.Source != filter.Source {
			continue
		}
		if filter.IncidentID != "" && entry.IncidentID != filter.IncidentID {
			continue
		}
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt.After(result[j].TriggeredAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// ListSince retrieves all entries triggered at or after the given instant,
// oldest first.
func (r *HistoryRepository) ListSince(ctx context.Context, since time.Time) ([]*domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.TriggeredAt.Before(since) {
			continue
		}
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt.Before(result[j].TriggeredAt)
	})
	return result, nil
}
