package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClient_Chat(t *testing.T) {
	var captured openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "Hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 1}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o-mini")
	client.baseURL = server.URL

	resp, err := client.Chat(context.Background(), ChatRequest{
		System:      "You are terse.",
		Messages:    UserMessage("Say 'Hello' in one word"),
		Temperature: TemperatureSQL,
	})
	if err != nil {
		t.Fatalf("Failed to chat: %v", err)
	}
	if resp.Text != "Hello" {
		t.Errorf("Expected Hello, got %q", resp.Text)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 1 {
		t.Errorf("Expected usage 12/1, got %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if resp.StopReason != "stop" {
		t.Errorf("Expected stop reason stop, got %s", resp.StopReason)
	}

	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("Expected system message first, got %+v", captured.Messages)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", captured.Model)
	}
	if captured.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", DefaultMaxTokens, captured.MaxTokens)
	}
}

func TestOpenAIClient_ChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("bad-key", "gpt-4o-mini")
	client.baseURL = server.URL

	_, err := client.Chat(context.Background(), ChatRequest{Messages: UserMessage("hi")})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected ErrRequestFailed, got %v", err)
	}
}

func TestGeminiClient_Chat(t *testing.T) {
	var captured geminiGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected key in query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Hel"}, {"text": "lo"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 8, "candidatesTokenCount": 2}
		}`))
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-flash")
	client.baseURL = server.URL

	resp, err := client.Chat(context.Background(), ChatRequest{
		System: "You are terse.",
		Messages: []Message{
			{Role: RoleUser, Content: "first"},
			{Role: RoleAssistant, Content: "reply"},
			{Role: RoleUser, Content: "second"},
		},
		MaxTokens: 200,
	})
	if err != nil {
		t.Fatalf("Failed to chat: %v", err)
	}
	if resp.Text != "Hello" {
		t.Errorf("Expected concatenated parts Hello, got %q", resp.Text)
	}
	if resp.InputTokens != 8 || resp.OutputTokens != 2 {
		t.Errorf("Expected usage 8/2, got %d/%d", resp.InputTokens, resp.OutputTokens)
	}

	if captured.SystemInstruction == nil {
		t.Fatal("Expected system instruction in request")
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("Expected 3 content turns, got %d", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Errorf("Expected assistant mapped to model role, got %s", captured.Contents[1].Role)
	}
	if captured.GenerationConfig.MaxOutputTokens != 200 {
		t.Errorf("Expected max output tokens 200, got %d", captured.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiClient_ChatEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-flash")
	client.baseURL = server.URL

	_, err := client.Chat(context.Background(), ChatRequest{Messages: UserMessage("hi")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}
