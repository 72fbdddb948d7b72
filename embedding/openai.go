package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	openAIEmbedURL   = "https://api.openai.com/v1/embeddings"
	openAIEmbedModel = "text-embedding-3-small"
	openAIBatchSize  = 2048
	openAIDimensions = 1536
)

// OpenAIClient produces embeddings through the OpenAI embeddings API
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewOpenAIClient creates an embedding client using text-embedding-3-small
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    openAIEmbedURL,
	}
}

// Provider returns "openai"
func (c *OpenAIClient) Provider() string { return "openai" }

// Model returns the embedding model identifier
func (c *OpenAIClient) Model() string { return openAIEmbedModel }

// Dimensions returns 1536
func (c *OpenAIClient) Dimensions() int { return openAIDimensions }

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocuments embeds texts in batches of up to 2048 inputs per request
func (c *OpenAIClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += openAIBatchSize {
		end := start + openAIBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		body, err := json.Marshal(openAIEmbedRequest{Model: openAIEmbedModel, Input: batch})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		respBody, err := postWithRetry(ctx, c.httpClient, c.baseURL,
			map[string]string{"Authorization": "Bearer " + c.apiKey}, body)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}

		var parsed openAIEmbedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Data) != len(batch) {
			return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs",
				ErrEmbedFailed, len(parsed.Data), len(batch))
		}

		// Place by index; the API does not guarantee response order.
		for _, d := range parsed.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("%w: openai returned index %d out of range", ErrEmbedFailed, d.Index)
			}
			embeddings[start+d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

// EmbedQuery embeds a single search query
func (c *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: expected one embedding, got %d", ErrEmbedFailed, len(results))
	}
	return results[0], nil
}
