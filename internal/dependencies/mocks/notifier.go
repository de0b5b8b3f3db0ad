package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/notify"
)

// MockNotifier records broadcast events for test assertions. Broadcast is
// safe to call from timer goroutines; waiting helpers let tests block until
// an expected event arrives.
type MockNotifier struct {
	mu     sync.Mutex
	events []model.Event
	ch     chan model.Event
}

// Ensure MockNotifier implements Notifier
var _ notify.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		ch: make(chan model.Event, 256),
	}
}

// Broadcast records the event
func (n *MockNotifier) Broadcast(event model.Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()

	select {
	case n.ch <- event:
	default:
	}
}

// Events returns a copy of all recorded events
func (n *MockNotifier) Events() []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Event, len(n.events))
	copy(out, n.events)
	return out
}

// EventsOfType returns all recorded events of the given type
func (n *MockNotifier) EventsOfType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range n.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// CountOfType returns the number of recorded events of the given type
func (n *MockNotifier) CountOfType(t model.EventType) int {
	return len(n.EventsOfType(t))
}

// WaitFor blocks until an event of the given type is broadcast, or the
// timeout elapses. Events consumed while waiting remain in Events().
func (n *MockNotifier) WaitFor(t model.EventType, timeout time.Duration) (model.Event, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case e := <-n.ch:
			if e.Type == t {
				return e, true
			}
		case <-deadline:
			return model.Event{}, false
		}
	}
}

// Reset clears all recorded events
func (n *MockNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
	for {
		select {
		case <-n.ch:
		default:
			return
		}
	}
}
