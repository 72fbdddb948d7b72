package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	geminiEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiEmbedModel   = "text-embedding-004"
	geminiBatchSize    = 100
	geminiDimensions   = 768
)

// GeminiClient produces embeddings through the Gemini batch embedding API
type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGeminiClient creates an embedding client using text-embedding-004
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    geminiEmbedBaseURL,
	}
}

// Provider returns "gemini"
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the embedding model identifier
func (c *GeminiClient) Model() string { return geminiEmbedModel }

// Dimensions returns 768
func (c *GeminiClient) Dimensions() int { return geminiDimensions }

type geminiEmbedContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string             `json:"model"`
	Content geminiEmbedContent `json:"content"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// EmbedDocuments embeds texts in batches of up to 100 inputs per request
func (c *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchSize {
		end := start + geminiBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		reqs := make([]geminiEmbedRequest, 0, len(batch))
		for _, text := range batch {
			content := geminiEmbedContent{}
			content.Parts = append(content.Parts, struct {
				Text string `json:"text"`
			}{Text: text})
			reqs = append(reqs, geminiEmbedRequest{
				Model:   "models/" + geminiEmbedModel,
				Content: content,
			})
		}

		body, err := json.Marshal(geminiBatchEmbedRequest{Requests: reqs})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		url := fmt.Sprintf("%s/%s:batchEmbedContents?key=%s", c.baseURL, geminiEmbedModel, c.apiKey)
		respBody, err := postWithRetry(ctx, c.httpClient, url, nil, body)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}

		var parsed geminiBatchEmbedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d inputs",
				ErrEmbedFailed, len(parsed.Embeddings), len(batch))
		}
		for _, e := range parsed.Embeddings {
			embeddings = append(embeddings, e.Values)
		}
	}
	return embeddings, nil
}

// EmbedQuery embeds a single search query
func (c *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	results, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%w: expected one embedding, got %d", ErrEmbedFailed, len(results))
	}
	return results[0], nil
}
