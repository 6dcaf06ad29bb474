// Package audit publishes a record of every committed mutation to
// subscribers that want to watch the capability store change. It sits
// outside the authorization decision path entirely: nothing here can block
// or fail a grant, revoke, or bootstrap step, and no subscriber can exert
// backpressure on the writer that produced the event.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what kind of mutation an Event records.
type EventType string

const (
	EventGrant             EventType = "grant"
	EventRevoke            EventType = "revoke"
	EventRoleSet           EventType = "role.set"
	EventInheritSet        EventType = "inherit.set"
	EventInheritRemoved    EventType = "inherit.removed"
	EventEntityCreated     EventType = "entity.created"
	EventEntityDeleted     EventType = "entity.deleted"
	EventSessionCreated    EventType = "session.created"
	EventSessionRevoked    EventType = "session.revoked"
	EventBootstrapComplete EventType = "bootstrap.completed"
)

// Event is one committed mutation. Actor and Scope are registry ids; either
// may be zero for events that don't carry one (bootstrap, for instance, has
// no actor yet).
type Event struct {
	ID        string
	Type      EventType
	Actor     uint64
	Scope     uint64
	Timestamp time.Time
	Metadata  map[string]string
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker fans committed events out to any number of subscribers. Publish
// never blocks on a subscriber: a subscriber that isn't draining its buffer
// simply misses events rather than stalling the writer.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a broker. Call Start before publishing.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the distribution loop. Publish after Stop is a no-op.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe returns a new channel of events. Callers must Unsubscribe when
// done to release it.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes sub.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish records typ against actor/scope with the given metadata and
// queues it for distribution. The event ID is assigned here.
func (b *Broker) Publish(typ EventType, actor, scope uint64, metadata map[string]string) {
	event := &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Actor:     actor,
		Scope:     scope,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
