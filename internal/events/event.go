// Package events routes verified webhook payloads to the subscribers
// registered for their event-type name.
//
// The subscriber table is built once at startup with a Builder and is
// immutable afterwards, so it can be shared by every connection without
// locking. Dispatch is fire-and-forget from the HTTP point of view: each
// subscriber runs in its own goroutine, detached from the request, and its
// failures (errors or panics) are only logged and counted.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event is a verified, parsed webhook delivery.
type Event struct {
	// Name is the event-type name, e.g. "push" or "pull_request".
	Name string
	// DeliveryID identifies the delivery for log correlation.
	DeliveryID string
	// Payload is the parsed JSON document.
	Payload any
	// Raw holds the exact bytes the signature was verified over.
	Raw json.RawMessage
	// ReceivedAt is when the body finished arriving.
	ReceivedAt time.Time
}

// Decode unmarshals the raw payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}

// Subscriber receives dispatched events of one event-type name.
type Subscriber interface {
	Handle(ctx context.Context, ev Event) error
}

// SubscriberFunc adapts a function to a Subscriber.
type SubscriberFunc func(ctx context.Context, ev Event) error

// Handle calls f(ctx, ev).
func (f SubscriberFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
