// Package llm provides chat clients for the supported language model
// providers behind one interface, plus the provider registry and token
// accounting used across the assistant.
package llm

import (
	"context"
	"errors"
)

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrProviderNotFound indicates an unknown provider name
	ErrProviderNotFound = errors.New("llm: provider not found")

	// ErrNotConfigured indicates the provider has no API key
	ErrNotConfigured = errors.New("llm: provider not configured")

	// ErrEmptyResponse indicates the model returned no usable text
	ErrEmptyResponse = errors.New("llm: empty response")

	// ErrRequestFailed indicates the provider API rejected the request
	ErrRequestFailed = errors.New("llm: request failed")
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sampling temperatures. SQL generation runs cold so the output stays
// parseable; narrative text gets slightly more freedom.
const (
	TemperatureSQL       = 0.2
	TemperatureNarrative = 0.3
)

// DefaultMaxTokens is used when a request does not set its own limit
const DefaultMaxTokens = 1500

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-independent completion request
type ChatRequest struct {
	// System is the system prompt, empty for none
	System string

	// Messages is the conversation so far, oldest first
	Messages []Message

	// MaxTokens caps the response length, DefaultMaxTokens when zero
	MaxTokens int

	// Temperature controls sampling randomness
	Temperature float64
}

// ChatResponse is a provider-independent completion result
type ChatResponse struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	StopReason   string `json:"stop_reason,omitempty"`
}

// ChatClient generates completions from one provider
type ChatClient interface {
	// Chat sends a completion request and returns the model's response
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Provider returns the provider name, e.g. "anthropic"
	Provider() string

	// Model returns the model identifier in use
	Model() string
}

// UserMessage builds a single-turn conversation from one question
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
