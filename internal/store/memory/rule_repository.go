// Package memory provides in-memory implementations of store interfaces.
// These are useful for testing and development without external dependencies.
package memory

import (
	"context"
	"sync"

	"netwarden/internal/domain"
)

// RuleRepository is an in-memory implementation of store.RuleRepository.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.Rule
}

// NewRuleRepository creates a new in-memory rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[string]*domain.Rule)}
}

// Create stores a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy
	return nil
}

// Update modifies an existing rule.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; !exists {
		return domain.ErrRuleNotFound
	}
	ruleCopy := *rule
	r.rules[rule.ID] = &ruleCopy
	return nil
}

// Delete removes a rule by ID.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; !exists {
		return domain.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, domain.ErrRuleNotFound
	}
	result := *rule
	return &result, nil
}

// List retrieves all rules.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		ruleCopy := *rule
		result = append(result, &ruleCopy)
	}
	return result, nil
}

// ListEnabled retrieves all enabled rules.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]*domain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Rule
	for _, rule := range r.rules {
		if rule.Enabled {
			ruleCopy := *rule
			result = append(result, &ruleCopy)
		}
	}
	return result, nil
}
