// Package pubsub provides a small generic publish/subscribe broker used to
// fan out events from background goroutines (the log tailer, the status
// poller, the logger) into the Bubble Tea update loop.
package pubsub

import (
	"context"
	"time"
)

// Kind labels the kind of event being published. Each broker's producers
// define their own kinds.
type Kind string

// Event is a published event with a typed payload.
type Event[T any] struct {
	Kind    Kind
	Payload T
	At      time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(kind Kind, payload T)
}
