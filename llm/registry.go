package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ProviderBundle describes one provider's chat and embedding pairing
type ProviderBundle struct {
	// Name is the canonical provider name (required)
	Name string `json:"name"`

	// DisplayName is the human-readable provider name
	DisplayName string `json:"display_name"`

	// ChatModel is the default chat model
	ChatModel string `json:"chat_model"`

	// ChatModels lists the selectable chat models, default first
	ChatModels []string `json:"chat_models"`

	// EmbeddingModel is the embedding model paired with this provider
	EmbeddingModel string `json:"embedding_model"`

	// EmbeddingDimensions is the vector size the embedding model produces
	EmbeddingDimensions int `json:"embedding_dimensions"`

	// EmbeddingCost describes the embedding pricing in plain words
	EmbeddingCost string `json:"embedding_cost"`

	// NativeEmbeddings is true when the same API key covers embeddings
	NativeEmbeddings bool `json:"native_embeddings"`

	// APIKeyEnv is the environment variable holding the API key
	APIKeyEnv string `json:"api_key_env"`

	// Notes carries caveats shown in the settings screen
	Notes string `json:"notes,omitempty"`
}

// APIKey reads the provider's key from the environment
func (b *ProviderBundle) APIKey() string {
	return os.Getenv(b.APIKeyEnv)
}

// Registry holds the known provider bundles. The zero value is unusable;
// use NewRegistry for the built-in providers.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]*ProviderBundle
	aliases map[string]string
}

// NewRegistry returns a registry pre-populated with the supported providers
func NewRegistry() *Registry {
	r := &Registry{
		bundles: make(map[string]*ProviderBundle),
		aliases: map[string]string{"google": "gemini"},
	}

	r.register(&ProviderBundle{
		Name:                "openai",
		DisplayName:         "OpenAI",
		ChatModel:           "gpt-4o-mini",
		ChatModels:          []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"},
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		EmbeddingCost:       "$0.02 per 1M tokens",
		NativeEmbeddings:    true,
		APIKeyEnv:           "OPENAI_API_KEY",
	})
	r.register(&ProviderBundle{
		Name:                "gemini",
		DisplayName:         "Google Gemini",
		ChatModel:           "gemini-1.5-flash",
		ChatModels:          []string{"gemini-1.5-flash", "gemini-1.5-pro"},
		EmbeddingModel:      "text-embedding-004",
		EmbeddingDimensions: 768,
		EmbeddingCost:       "free",
		NativeEmbeddings:    true,
		APIKeyEnv:           "GOOGLE_API_KEY",
	})
	r.register(&ProviderBundle{
		Name:                "anthropic",
		DisplayName:         "Anthropic",
		ChatModel:           "claude-3-5-sonnet-20241022",
		ChatModels:          []string{"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022"},
		EmbeddingModel:      "voyage-2",
		EmbeddingDimensions: 1024,
		EmbeddingCost:       "requires a separate Voyage AI key; falls back to local embeddings",
		NativeEmbeddings:    false,
		APIKeyEnv:           "ANTHROPIC_API_KEY",
		Notes:               "Set VOYAGE_API_KEY for hosted embeddings, otherwise the local model is used",
	})

	return r
}

func (r *Registry) register(b *ProviderBundle) {
	r.bundles[b.Name] = b
}

// Resolve canonicalizes a provider name, following aliases
func (r *Registry) Resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

// Get returns the bundle for a provider name or alias
func (r *Registry) Get(name string) (*ProviderBundle, error) {
	canonical := r.Resolve(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return b, nil
}

// List returns all bundles sorted by name
func (r *Registry) List() []*ProviderBundle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bundles := make([]*ProviderBundle, 0, len(r.bundles))
	for _, b := range r.bundles {
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles
}

// Names returns the canonical provider names sorted alphabetically
func (r *Registry) Names() []string {
	bundles := r.List()
	names := make([]string, 0, len(bundles))
	for _, b := range bundles {
		names = append(names, b.Name)
	}
	return names
}

// SetupReport is the result of checking a provider's configuration
type SetupReport struct {
	Valid            bool     `json:"valid"`
	Provider         string   `json:"provider,omitempty"`
	ChatModels       []string `json:"chat_models,omitempty"`
	EmbeddingCost    string   `json:"embedding_cost,omitempty"`
	NativeEmbeddings bool     `json:"native_embeddings"`
	Error            string   `json:"error,omitempty"`
	Fix              string   `json:"fix,omitempty"`
}

// ValidateSetup checks that a provider exists and has an API key. An empty
// apiKey falls back to the provider's environment variable.
func (r *Registry) ValidateSetup(provider, apiKey string) *SetupReport {
	bundle, err := r.Get(provider)
	if err != nil {
		return &SetupReport{
			Valid: false,
			Error: fmt.Sprintf("unknown provider %q", provider),
			Fix:   fmt.Sprintf("choose one of: %s", strings.Join(r.Names(), ", ")),
		}
	}

	if apiKey == "" {
		apiKey = bundle.APIKey()
	}
	if apiKey == "" {
		return &SetupReport{
			Valid: false,
			Error: fmt.Sprintf("no API key configured for %s", bundle.DisplayName),
			Fix:   fmt.Sprintf("export %s=<your key> or enter the key in settings", bundle.APIKeyEnv),
		}
	}

	return &SetupReport{
		Valid:            true,
		Provider:         bundle.Name,
		ChatModels:       bundle.ChatModels,
		EmbeddingCost:    bundle.EmbeddingCost,
		NativeEmbeddings: bundle.NativeEmbeddings,
	}
}

// NewChatClient builds a chat client for the provider. An empty model picks
// the bundle default; an empty apiKey reads the provider's environment
// variable.
func (r *Registry) NewChatClient(provider, apiKey, model string) (ChatClient, error) {
	bundle, err := r.Get(provider)
	if err != nil {
		return nil, err
	}

	if apiKey == "" {
		apiKey = bundle.APIKey()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s (set %s)", ErrNotConfigured, bundle.Name, bundle.APIKeyEnv)
	}
	if model == "" {
		model = bundle.ChatModel
	}

	switch bundle.Name {
	case "anthropic":
		return NewAnthropicClient(apiKey, model), nil
	case "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "gemini":
		return NewGeminiClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, provider)
	}
}
