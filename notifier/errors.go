package notifier

import "errors"

// Errors returned by the notifier package.
var (
	// ErrAlreadyStarted is returned when Start() is called on a running bus.
	ErrAlreadyStarted = errors.New("event bus already started")

	// ErrNotStarted is returned when Stop() or Publish() is called on a bus
	// that hasn't started.
	ErrNotStarted = errors.New("event bus not started")

	// ErrUnknownEventType is returned when an unknown event type is published.
	ErrUnknownEventType = errors.New("unknown event type")
)
