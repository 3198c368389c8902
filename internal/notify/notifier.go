// Package notify provides the delivery channel capability: pluggable sinks
// that can send a single alert or a digest batch, looked up by channel type
// in a registry built at startup.
package notify

import (
	"context"
	"log/slog"
	"time"

	"netwarden/internal/domain"
)

// Summary describes an uncollapsed digest batch: totals per severity over
// the digest window. Senders render it as the digest header.
type Summary struct {
	Total      int                     `json:"total"`
	BySeverity map[domain.Severity]int `json:"by_severity"`
	From       time.Time               `json:"from"`
	To         time.Time               `json:"to"`
}

// Summarize computes a Summary over a batch of history entries.
func Summarize(entries []*domain.HistoryEntry, from, to time.Time) Summary {
	summary := Summary{
		Total:      len(entries),
		BySeverity: make(map[domain.Severity]int),
		From:       from,
		To:         to,
	}
	for _, entry := range entries {
		summary.BySeverity[entry.Severity]++
	}
	return summary
}

// Sender is the abstract delivery sink. Implementations interpret the
// channel's opaque config JSON and may return an error to signal a
// transport failure; the pipeline accounts for failures per channel.
type Sender interface {
	// Send delivers a single alert to the channel.
	Send(ctx context.Context, event *domain.Event, entry *domain.HistoryEntry, channel *domain.Channel) error

	// SendDigest delivers a collapsed batch plus its summary.
	SendDigest(ctx context.Context, entries []*domain.HistoryEntry, channel *domain.Channel, summary Summary) error
}

// Registry maps channel types to their concrete senders. Built once at
// startup; read-only afterwards, so lookups need no locking.
type Registry struct {
	senders map[domain.ChannelType]Sender
	logger  *slog.Logger
}

// NewRegistry creates an empty sender registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		senders: make(map[domain.ChannelType]Sender),
		logger:  logger,
	}
}

// Register binds a sender to a channel type, replacing any previous binding.
func (r *Registry) Register(channelType domain.ChannelType, sender Sender) {
	r.senders[channelType] = sender
}

// Lookup returns the sender for a channel type, or nil if none registered.
func (r *Registry) Lookup(channelType domain.ChannelType) Sender {
	return r.senders[channelType]
}
