package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sallytsm/sally/llm"
)

// providerProbePrompt keeps provider tests cheap.
const providerProbePrompt = "Say 'Hello' in one word"

// ProviderCatalog is the provider listing for the settings screen.
type ProviderCatalog struct {
	Providers  []*llm.ProviderBundle `json:"providers"`
	Configured []string              `json:"configured"`
	Default    string                `json:"default"`
}

// ListProviders returns the provider catalog with the subset that has
// credentials in the environment.
func (s *Service) ListProviders() *ProviderCatalog {
	bundles := s.config.Registry.List()
	configured := make([]string, 0, len(bundles))
	for _, b := range bundles {
		if b.APIKey() != "" {
			configured = append(configured, b.Name)
		}
	}
	return &ProviderCatalog{
		Providers:  bundles,
		Configured: configured,
		Default:    s.config.DefaultProvider,
	}
}

// TestProvider probes a chat provider with a one-word completion. An
// empty apiKey falls back to the provider's environment variable, an
// empty model to the provider default.
func (s *Service) TestProvider(ctx context.Context, provider, model, apiKey string) *ConnectionTestResult {
	now := time.Now().UTC()

	client, err := s.config.Registry.NewChatClient(provider, apiKey, model)
	if err != nil {
		return &ConnectionTestResult{
			Message:   fmt.Sprintf("provider setup failed: %v", err),
			Details:   map[string]any{"provider": provider},
			Timestamp: now,
		}
	}

	resp, err := client.Chat(ctx, llm.ChatRequest{
		Messages:  llm.UserMessage(providerProbePrompt),
		MaxTokens: 10,
	})
	if err != nil {
		return &ConnectionTestResult{
			Message: fmt.Sprintf("%s connection failed: %v", client.Provider(), err),
			Details: map[string]any{
				"provider":   client.Provider(),
				"model":      client.Model(),
				"error_type": fmt.Sprintf("%T", err),
			},
			Timestamp: now,
		}
	}

	return &ConnectionTestResult{
		Success: true,
		Message: fmt.Sprintf("%s connection successful", client.Provider()),
		Details: map[string]any{
			"provider":      client.Provider(),
			"model":         client.Model(),
			"test_response": strings.TrimSpace(resp.Text),
		},
		Timestamp: now,
	}
}
