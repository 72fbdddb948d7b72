package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"canonical name", "openai", "openai"},
		{"alias google", "google", "gemini"},
		{"mixed case", "Anthropic", "anthropic"},
		{"whitespace", "  gemini  ", "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	bundle, err := r.Get("google")
	if err != nil {
		t.Fatalf("Failed to get aliased provider: %v", err)
	}
	if bundle.Name != "gemini" {
		t.Errorf("Expected gemini bundle, got %s", bundle.Name)
	}
	if bundle.EmbeddingDimensions != 768 {
		t.Errorf("Expected 768 dimensions, got %d", bundle.EmbeddingDimensions)
	}

	_, err = r.Get("mistral")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()

	names := r.Names()
	expected := []string{"anthropic", "gemini", "openai"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d providers, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected provider %s at index %d, got %s", name, i, names[i])
		}
	}
}

func TestRegistry_ValidateSetup(t *testing.T) {
	r := NewRegistry()

	report := r.ValidateSetup("nonsense", "")
	if report.Valid {
		t.Error("Expected invalid report for unknown provider")
	}
	if !strings.Contains(report.Fix, "anthropic") {
		t.Errorf("Expected fix to list providers, got %q", report.Fix)
	}

	t.Setenv("OPENAI_API_KEY", "")
	report = r.ValidateSetup("openai", "")
	if report.Valid {
		t.Error("Expected invalid report without API key")
	}
	if !strings.Contains(report.Fix, "OPENAI_API_KEY") {
		t.Errorf("Expected fix to name the env var, got %q", report.Fix)
	}

	report = r.ValidateSetup("openai", "sk-test")
	if !report.Valid {
		t.Errorf("Expected valid report with key, got error %q", report.Error)
	}
	if report.Provider != "openai" {
		t.Errorf("Expected provider openai, got %s", report.Provider)
	}
	if len(report.ChatModels) == 0 || report.ChatModels[0] != "gpt-4o-mini" {
		t.Errorf("Expected default chat model first, got %v", report.ChatModels)
	}
	if !report.NativeEmbeddings {
		t.Error("Expected native embeddings for openai")
	}
}

func TestRegistry_NewChatClient(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		provider      string
		expectedModel string
	}{
		{"anthropic", "claude-3-5-sonnet-20241022"},
		{"openai", "gpt-4o-mini"},
		{"gemini", "gemini-1.5-flash"},
		{"google", "gemini-1.5-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, err := r.NewChatClient(tt.provider, "test-key", "")
			if err != nil {
				t.Fatalf("Failed to create client: %v", err)
			}
			if client.Model() != tt.expectedModel {
				t.Errorf("Expected default model %s, got %s", tt.expectedModel, client.Model())
			}
			if client.Provider() != r.Resolve(tt.provider) {
				t.Errorf("Expected provider %s, got %s", r.Resolve(tt.provider), client.Provider())
			}
		})
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := r.NewChatClient("openai", "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured without key, got %v", err)
	}
	if _, err := r.NewChatClient("nope", "key", ""); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}

	client, err := r.NewChatClient("openai", "key", "gpt-4o")
	if err != nil {
		t.Fatalf("Failed to create client with explicit model: %v", err)
	}
	if client.Model() != "gpt-4o" {
		t.Errorf("Expected explicit model gpt-4o, got %s", client.Model())
	}
}
