package memory

import (
	"context"
	"sync"
	"time"
)

// DigestStateStore is an in-memory implementation of store.DigestStateStore.
type DigestStateStore struct {
	mu       sync.RWMutex
	lastSent map[string]time.Time
}

// NewDigestStateStore creates a new in-memory digest state store.
func NewDigestStateStore() *DigestStateStore {
	return &DigestStateStore{lastSent: make(map[string]time.Time)}
}

// GetLastSent retrieves the last digest send instant for a channel.
// Returns the zero time if the channel has never sent.
func (s *DigestStateStore) GetLastSent(ctx context.Context, channelID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSent[channelID], nil
}

// SetLastSent records the last digest send instant for a channel.
func (s *DigestStateStore) SetLastSent(ctx context.Context, channelID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent[channelID] = sentAt
	return nil
}

// Close releases any resources (no-op for in-memory store).
func (s *DigestStateStore) Close() error {
	return nil
}

// Clear removes all data from the store. Useful for test cleanup.
func (s *DigestStateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent = make(map[string]time.Time)
}
