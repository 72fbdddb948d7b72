package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	voyageEmbedURL   = "https://api.voyageai.com/v1/embeddings"
	voyageEmbedModel = "voyage-2"
	voyageBatchSize  = 128
	voyageDimensions = 1024
)

// VoyageClient produces embeddings through the Voyage AI API, the pairing
// used alongside Anthropic chat models
type VoyageClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewVoyageClient creates an embedding client using voyage-2
func NewVoyageClient(apiKey string) *VoyageClient {
	return &VoyageClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    voyageEmbedURL,
	}
}

// Provider returns "voyage"
func (c *VoyageClient) Provider() string { return "voyage" }

// Model returns the embedding model identifier
func (c *VoyageClient) Model() string { return voyageEmbedModel }

// Dimensions returns 1024
func (c *VoyageClient) Dimensions() int { return voyageDimensions }

type voyageEmbedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *VoyageClient) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += voyageBatchSize {
		end := start + voyageBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		body, err := json.Marshal(voyageEmbedRequest{
			Model:     voyageEmbedModel,
			Input:     batch,
			InputType: inputType,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		respBody, err := postWithRetry(ctx, c.httpClient, c.baseURL,
			map[string]string{"Authorization": "Bearer " + c.apiKey}, body)
		if err != nil {
			return nil, fmt.Errorf("voyage: %w", err)
		}

		var parsed voyageEmbedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Data) != len(batch) {
			return nil, fmt.Errorf("%w: voyage returned %d embeddings for %d inputs",
				ErrEmbedFailed, len(parsed.Data), len(batch))
		}
		for _, d := range parsed.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("%w: voyage returned index %d out of range", ErrEmbedFailed, d.Index)
			}
			embeddings[start+d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

// EmbedDocuments embeds texts in batches of up to 128 inputs per request
func (c *VoyageClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, "document")
}

// EmbedQuery embeds a single search query
func (c *VoyageClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := c.embed(ctx, []string{text}, "query")
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: expected one embedding, got %d", ErrEmbedFailed, len(results))
	}
	return results[0], nil
}
