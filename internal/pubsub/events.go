// Package pubsub provides a generic publish/subscribe event system used to
// deliver document change notifications to the browser.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	ChangedEvent EventType = "changed" // content was written
	RemovedEvent EventType = "removed" // file was removed or renamed away
	ErrorEvent   EventType = "error"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
