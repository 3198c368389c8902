package store

import (
	"context"
	"time"
)

// DigestStateStore is the durable mirror of per-channel digest last-sent
// instants. The summarizer keeps these in memory for fast checks and writes
// through here so a restart does not immediately re-fire a digest that
// already ran. Typically backed by Redis in production.
// All methods must be safe for concurrent use.
type DigestStateStore interface {
	// GetLastSent retrieves the last digest send instant for a channel.
	// Returns the zero time and no error if the channel has never sent.
	GetLastSent(ctx context.Context, channelID string) (time.Time, error)

	// SetLastSent records the last digest send instant for a channel.
	SetLastSent(ctx context.Context, channelID string, sentAt time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
