package llm

import (
	"context"
	"testing"
)

func TestApproximateTokens(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"four chars", "abcd", 1},
		{"five chars", "abcde", 2},
		{"sentence", "How many shipments are delayed?", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApproximateTokens(tt.content); got != tt.expected {
				t.Errorf("Expected %d tokens, got %d", tt.expected, got)
			}
		})
	}
}

func TestTokenCounter_NoClient(t *testing.T) {
	counter := NewTokenCounter(nil)

	count, err := counter.CountTokens(context.Background(), "claude-3-5-sonnet-20241022", "hello world")
	if err != nil {
		t.Fatalf("Failed to count tokens: %v", err)
	}
	if count != ApproximateTokens("hello world") {
		t.Errorf("Expected approximation without client, got %d", count)
	}

	count, err = counter.CountTokens(context.Background(), "claude-3-5-sonnet-20241022", "")
	if err != nil {
		t.Fatalf("Failed to count empty content: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 tokens for empty content, got %d", count)
	}
}
