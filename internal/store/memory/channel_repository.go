package memory

import (
	"context"
	"sync"

	"netwarden/internal/domain"
)

// ChannelRepository is an in-memory implementation of store.ChannelRepository.
type ChannelRepository struct {
	mu       sync.RWMutex
	channels map[string]*domain.Channel
}

// NewChannelRepository creates a new in-memory channel repository.
func NewChannelRepository() *ChannelRepository {
	return &ChannelRepository{channels: make(map[string]*domain.Channel)}
}

// Create stores a new channel.
func (r *ChannelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channelCopy := *channel
	r.channels[channel.ID] = &channelCopy
	return nil
}

// Update modifies an existing channel.
func (r *ChannelRepository) Update(ctx context.Context, channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[channel.ID]; !exists {
		return domain.ErrChannelNotFound
	}
	channelCopy := *channel
	r.channels[channel.ID] = &channelCopy
	return nil
}

// Delete removes a channel by ID.
func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[id]; !exists {
		return domain.ErrChannelNotFound
	}
	delete(r.channels, id)
	return nil
}

// GetByID retrieves a channel by its ID.
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel, exists := r.channels[id]
	if !exists {
		return nil, domain.ErrChannelNotFound
	}
	result := *channel
	return &result, nil
}

// List retrieves all channels.
func (r *ChannelRepository) List(ctx context.Context) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		channelCopy := *channel
		result = append(result, &channelCopy)
	}
	return result, nil
}

// ListEnabled retrieves all enabled channels.
func (r *ChannelRepository) ListEnabled(ctx context.Context) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Channel
	for _, channel := range r.channels {
		if channel.Enabled {
			channelCopy := *channel
			result = append(result, &channelCopy)
		}
	}
	return result, nil
}
