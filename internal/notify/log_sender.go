package notify

import (
	"context"
	"log/slog"

	"netwarden/internal/domain"
)

// LogSender writes notifications to the application log instead of an
// external transport. Useful for development and as a safe default sink.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new log sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs a single alert notification.
func (s *LogSender) Send(ctx context.Context, event *domain.Event, entry *domain.HistoryEntry, channel *domain.Channel) error {
	s.logger.Info("alert notification",
		"channelID", channel.ID,
		"channelName", channel.Name,
		"eventType", event.Type,
		"severity", event.Severity,
		"title", event.Title,
		"device", event.DeviceKey(),
	)
	return nil
}

// SendDigest logs a digest notification.
func (s *LogSender) SendDigest(ctx context.Context, entries []*domain.HistoryEntry, channel *domain.Channel, summary Summary) error {
	s.logger.Info("digest notification",
		"channelID", channel.ID,
		"channelName", channel.Name,
		"entries", len(entries),
		"total", summary.Total,
		"from", summary.From,
		"to", summary.To,
	)
	for _, entry := range entries {
		s.logger.Info("digest entry",
			"channelID", channel.ID,
			"severity", entry.Severity,
			"title", entry.Title,
			"source", entry.Source,
		)
	}
	return nil
}
