package notifier

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// waitEvent receives one event or fails the test after a timeout.
func waitEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
		return nil
	}
}

func TestBus_StartStop(t *testing.T) {
	bus := NewBus(nil)

	ctx := context.Background()

	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !bus.IsRunning() {
		t.Error("Expected bus to be running")
	}

	// Second start should fail
	if err := bus.Start(ctx); err != ErrAlreadyStarted {
		t.Fatalf("Start() error = %v, want %v", err, ErrAlreadyStarted)
	}

	if err := bus.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if bus.IsRunning() {
		t.Error("Expected bus to not be running")
	}
}

func TestBus_StopNotStarted(t *testing.T) {
	bus := NewBus(nil)

	if err := bus.Stop(context.Background()); err != ErrNotStarted {
		t.Fatalf("Stop() error = %v, want %v", err, ErrNotStarted)
	}
}

func TestBus_PublishNotStarted(t *testing.T) {
	bus := NewBus(nil)

	if err := bus.Publish(EventBriefGenerated, "brief_morning_2026-08-20"); err != ErrNotStarted {
		t.Errorf("Publish() error = %v, want %v", err, ErrNotStarted)
	}
}

func TestBus_PublishUnknownType(t *testing.T) {
	bus := NewBus(nil)

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer bus.Stop(ctx)

	if err := bus.Publish(EventType("reboot"), "payload"); err != ErrUnknownEventType {
		t.Errorf("Publish() error = %v, want %v", err, ErrUnknownEventType)
	}
}

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan *Event, 10)

	unsubscribe := bus.Subscribe(EventBriefGenerated, func(event *Event) {
		received <- event
	})

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := bus.Publish(EventBriefGenerated, "brief_morning_2026-08-20"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	event := waitEvent(t, received)
	if event.Type != EventBriefGenerated {
		t.Errorf("Event type = %v, want %v", event.Type, EventBriefGenerated)
	}
	if event.Payload != "brief_morning_2026-08-20" {
		t.Errorf("Event payload = %v, want brief_morning_2026-08-20", event.Payload)
	}
	if event.PublishedAt.IsZero() {
		t.Error("Expected PublishedAt to be set")
	}

	// Events of other types are not delivered to this subscriber
	if err := bus.Publish(EventShipmentDelayed, "SHP-2025-0120"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	unsubscribe()

	if err := bus.Publish(EventBriefGenerated, "brief_evening_2026-08-20"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// Give the dispatch loop time to deliver anything wrongly still routed
	time.Sleep(50 * time.Millisecond)

	select {
	case event := <-received:
		t.Errorf("Received unexpected event after unsubscribe: %+v", event)
	default:
	}

	if err := bus.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan *Event, 10)

	unsubscribe := bus.SubscribeAll(func(event *Event) {
		received <- event
	})
	defer unsubscribe()

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer bus.Stop(ctx)

	published := []EventType{EventBriefGenerated, EventQualityEventRaised, EventLeaderChanged}
	for _, eventType := range published {
		if err := bus.Publish(eventType, "payload"); err != nil {
			t.Fatalf("Publish(%s) error = %v", eventType, err)
		}
	}

	for _, want := range published {
		event := waitEvent(t, received)
		if event.Type != want {
			t.Errorf("Event type = %v, want %v", event.Type, want)
		}
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(nil)

	var count1, count2 atomic.Int32
	delivered := make(chan struct{}, 10)

	bus.Subscribe(EventShipmentDelayed, func(event *Event) {
		count1.Add(1)
		delivered <- struct{}{}
	})
	bus.Subscribe(EventShipmentDelayed, func(event *Event) {
		count2.Add(1)
		delivered <- struct{}{}
	})

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer bus.Stop(ctx)

	if err := bus.Publish(EventShipmentDelayed, "SHP-2025-0120"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for handler delivery")
		}
	}

	if count1.Load() != 1 {
		t.Errorf("Handler 1 called %d times, want 1", count1.Load())
	}
	if count2.Load() != 1 {
		t.Errorf("Handler 2 called %d times, want 1", count2.Load())
	}
}

func TestBus_DropsWhenQueueFull(t *testing.T) {
	dropped := make(chan *Event, 10)
	bus := NewBus(&Config{
		QueueSize: 1,
		OnDrop: func(event *Event) {
			dropped <- event
		},
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	received := make(chan *Event, 10)

	bus.Subscribe(EventBriefGenerated, func(event *Event) {
		entered <- struct{}{}
		<-release
		received <- event
	})

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer bus.Stop(ctx)

	// First event occupies the dispatch goroutine
	if err := bus.Publish(EventBriefGenerated, "first"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	<-entered

	// Second fills the queue, third has nowhere to go
	if err := bus.Publish(EventBriefGenerated, "second"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(EventBriefGenerated, "third"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	droppedEvent := waitEvent(t, dropped)
	if droppedEvent.Payload != "third" {
		t.Errorf("Dropped payload = %q, want third", droppedEvent.Payload)
	}
	if bus.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", bus.Dropped())
	}

	// Queued events still flow once the handler unblocks
	close(release)
	<-entered
	if got := waitEvent(t, received); got.Payload != "first" {
		t.Errorf("First delivered payload = %q, want first", got.Payload)
	}
	if got := waitEvent(t, received); got.Payload != "second" {
		t.Errorf("Second delivered payload = %q, want second", got.Payload)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.QueueSize != 256 {
		t.Errorf("QueueSize = %d, want 256", config.QueueSize)
	}
}
