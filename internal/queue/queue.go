// Package queue defines interfaces for the event bus the pipeline consumes.
// This abstraction allows swapping implementations (Kafka, in-memory)
// without changing business logic.
package queue

import (
	"context"
)

// Message represents a message on the event bus.
type Message struct {
	// Key is the partition key for ordering guarantees. Events for the
	// same device carry the same key so they are processed in order.
	Key []byte

	// Value is the serialized event payload.
	Value []byte

	// Headers contains optional metadata.
	Headers map[string]string
}

// Producer defines the interface for publishing messages onto the bus.
// Implementations must be safe for concurrent use.
type Producer interface {
	// Publish sends a message to the bus.
	Publish(ctx context.Context, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// MessageHandler is a callback function for processing consumed messages.
// A non-nil error marks the message as failed; the consumer logs it and
// moves on rather than stopping the loop.
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer defines the interface for consuming messages from the bus.
type Consumer interface {
	// Start begins consuming messages and calls the handler for each one.
	// This is a blocking call that runs until the context is canceled;
	// an in-flight message is allowed to finish before Start returns.
	Start(ctx context.Context, handler MessageHandler) error

	// Close stops consuming and releases any resources.
	Close() error
}
