package sally

import "errors"

// Common errors
var (
	// ErrInvalidConfig is returned when the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClientNotStarted is returned when calling operations before Start()
	ErrClientNotStarted = errors.New("client not started")

	// ErrClientAlreadyStarted is returned when Start() is called twice
	ErrClientAlreadyStarted = errors.New("client already started")
)
