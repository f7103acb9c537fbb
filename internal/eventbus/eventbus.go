// Package eventbus decouples the rule and config layers from their
// observers. Rule mutations, config document edits and websocket client
// churn are published here; the notifier and the metrics collector
// subscribe and type-switch on the structs from core/events.
package eventbus

import "sync"

// Event is anything placed on the bus. Subscribers type-switch on the
// concrete payloads, e.g. events.RuleChanged or events.ConfigChanged.
type Event interface{}

// EventBus is the publish/subscribe surface handed to producers and
// consumers alike.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus fans events out to per-subscriber buffered channels.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New returns a Bus with no subscribers yet.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber. A subscriber whose
// buffer is full is skipped so a stalled notifier can never block a rule
// save or a config write.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new consumer. The channel buffers a handful of
// events; on a closed bus the returned channel is already closed.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches the consumer and closes its channel. Unknown or
// already removed channels are ignored.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down; every subscriber channel is closed and later
// publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
