// Package notify defines the one-way sink the game core uses to publish
// state-change events. The transport layer owns the implementation.
package notify

import "github.com/mcoot/spinwheel-go/internal/model"

// Notifier publishes events to all connected clients. Implementations must
// preserve publish order: events handed to Broadcast are delivered to every
// client in the order they were published.
type Notifier interface {
	Broadcast(event model.Event)
}

// Nop is a Notifier that discards all events
type Nop struct{}

// Broadcast discards the event
func (Nop) Broadcast(model.Event) {}

var _ Notifier = Nop{}
