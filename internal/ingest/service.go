// Package ingest provides the event ingestion service.
// It handles receiving events, validating them, computing partition keys,
// and publishing to the event bus for asynchronous processing.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"netwarden/internal/domain"
	"netwarden/internal/metrics"
	"netwarden/internal/queue"
)

// Service handles event ingestion logic.
// It is responsible for:
// - Validating inbound events
// - Computing partition keys for ordered processing
// - Publishing events to the event bus
type Service struct {
	producer queue.Producer
	logger   *slog.Logger
}

// NewService creates a new ingest service.
func NewService(producer queue.Producer, logger *slog.Logger) *Service {
	return &Service{
		producer: producer,
		logger:   logger,
	}
}

// ErrPublishFailed is returned when the event cannot be placed on the bus.
var ErrPublishFailed = errors.New("failed to publish event to queue")

// IngestEvent validates an incoming event and publishes it to the event
// bus. This is the main entry point for event ingestion.
func (s *Service) IngestEvent(ctx context.Context, event *domain.Event) error {
	if err := event.Validate(); err != nil {
		s.logger.Warn("rejected invalid event",
			"eventType", event.Type,
			"source", event.Source,
			"error", err,
		)
		return err
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	// Events for the same device go to the same partition so the
	// pipeline sees them in order.
	partitionKey := computePartitionKey(event)

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to serialize event", "error", err)
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	msg := &queue.Message{
		Key:   []byte(partitionKey),
		Value: payload,
		Headers: map[string]string{
			"eventType": event.Type,
			"source":    event.Source,
			"severity":  string(event.Severity),
		},
	}

	publishStart := time.Now()
	if err := s.producer.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish event",
			"eventType", event.Type,
			"source", event.Source,
			"error", err,
		)
		return ErrPublishFailed
	}
	metrics.QueuePublishLatency.Observe(time.Since(publishStart).Seconds())
	metrics.EventsPublishedTotal.WithLabelValues(event.Source).Inc()

	s.logger.Debug("event published to queue",
		"eventType", event.Type,
		"partitionKey", partitionKey,
	)

	return nil
}

// computePartitionKey generates a deterministic partition key for an
// event from its device identity, falling back to the source for events
// without one.
//
// Format: hash(deviceKey + source)
func computePartitionKey(event *domain.Event) string {
	input := event.DeviceKey() + ":" + event.Source
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:8]) // Use first 8 bytes (16 hex chars) for brevity
}
