// Package notifier provides the in-process event bus connecting the domain
// services to the dashboard's live event stream.
//
// Services publish typed events (a brief was generated, a quality event was
// raised, a shipment slipped). A single dispatch goroutine delivers them to
// subscribers, so a slow handler delays other handlers but never the
// publisher. When the queue is full events are dropped, counted, and
// reported through Config.OnDrop.
package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of event.
type EventType string

// Event types that can be published and subscribed to.
const (
	EventBriefGenerated     EventType = "brief_generated"
	EventQualityEventRaised EventType = "quality_event_raised"
	EventShipmentDelayed    EventType = "shipment_delayed"
	EventLeaderChanged      EventType = "leader_changed"
	EventModeChanged        EventType = "mode_changed"
)

// validEvents guards Publish against typo'd event types.
var validEvents = map[EventType]struct{}{
	EventBriefGenerated:     {},
	EventQualityEventRaised: {},
	EventShipmentDelayed:    {},
	EventLeaderChanged:      {},
	EventModeChanged:        {},
}

// Event is a published notification.
type Event struct {
	// Type is the event type.
	Type EventType `json:"type"`

	// Payload carries event detail, usually a small JSON document
	// (e.g. the brief ID, the shipment number).
	Payload string `json:"payload"`

	// PublishedAt is when the event entered the bus.
	PublishedAt time.Time `json:"published_at"`
}

// Handler is called when an event is delivered.
type Handler func(event *Event)

// Config holds configuration for the event bus.
type Config struct {
	// QueueSize bounds the number of undelivered events. Publishing to a
	// full queue drops the event rather than blocking the publisher.
	// Default: 256
	QueueSize int

	// OnDrop is called when an event is dropped because the queue is full.
	OnDrop func(event *Event)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		QueueSize: 256,
	}
}

// subscription is one registered handler.
type subscription struct {
	handler Handler
	id      int64
}

// Bus is the in-process event bus.
type Bus struct {
	config *Config

	mu            sync.RWMutex
	subscriptions map[EventType][]*subscription
	allSubs       []*subscription
	nextSubID     int64

	queue   chan *Event
	dropped atomic.Int64

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewBus creates an event bus. Call Start before publishing.
func NewBus(config *Config) *Bus {
	if config == nil {
		config = DefaultConfig()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}

	return &Bus{
		config:        config,
		subscriptions: make(map[EventType][]*subscription),
		queue:         make(chan *Event, config.QueueSize),
		done:          make(chan struct{}),
	}
}

// Start begins dispatching published events to subscribers.
func (b *Bus) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, b.cancel = context.WithCancel(ctx)
	go b.run(ctx)

	return nil
}

// Stop stops the bus. Undelivered events still in the queue are discarded.
func (b *Bus) Stop(ctx context.Context) error {
	if !b.started.Load() {
		return ErrNotStarted
	}

	b.cancel()
	<-b.done

	b.started.Store(false)
	return nil
}

// IsRunning returns true if the bus is dispatching events.
func (b *Bus) IsRunning() bool {
	return b.started.Load()
}

// Subscribe registers a handler for the given event type.
// Returns a function to unsubscribe.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{handler: handler, id: b.nextSubID}
	b.nextSubID++

	b.subscriptions[eventType] = append(b.subscriptions[eventType], sub)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subscriptions[eventType] = removeSub(b.subscriptions[eventType], sub.id)
	}
}

// SubscribeAll registers a handler for every event type, for consumers such
// as the live event stream that forward everything.
// Returns a function to unsubscribe.
func (b *Bus) SubscribeAll(handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{handler: handler, id: b.nextSubID}
	b.nextSubID++

	b.allSubs = append(b.allSubs, sub)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.allSubs = removeSub(b.allSubs, sub.id)
	}
}

func removeSub(subs []*subscription, id int64) []*subscription {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

// Publish enqueues an event for delivery. It never blocks: when the queue
// is full the event is dropped and counted.
func (b *Bus) Publish(eventType EventType, payload string) error {
	if _, ok := validEvents[eventType]; !ok {
		return ErrUnknownEventType
	}
	if !b.started.Load() {
		return ErrNotStarted
	}

	event := &Event{
		Type:        eventType,
		Payload:     payload,
		PublishedAt: time.Now(),
	}

	select {
	case b.queue <- event:
	default:
		b.dropped.Add(1)
		if b.config.OnDrop != nil {
			b.config.OnDrop(event)
		}
	}

	return nil
}

// Dropped returns the number of events dropped because the queue was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// run is the dispatch loop.
func (b *Bus) run(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.queue:
			b.dispatch(event)
		}
	}
}

// dispatch delivers an event to its typed subscribers, then to subscribe-all
// handlers.
func (b *Bus) dispatch(event *Event) {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.subscriptions[event.Type])+len(b.allSubs))
	subs = append(subs, b.subscriptions[event.Type]...)
	subs = append(subs, b.allSubs...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}
