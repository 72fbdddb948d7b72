// Package embedding turns text into vectors. Each chat provider pairs with a
// native embedding API where one exists; Anthropic setups use Voyage AI when
// a key is present and fall back to a deterministic local model otherwise.
package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrEmbedFailed indicates the embedding API rejected the request
var ErrEmbedFailed = errors.New("embedding: request failed")

// Client produces embeddings for documents and queries
type Client interface {
	// EmbedDocuments embeds a batch of texts, preserving order
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector size this client produces
	Dimensions() int

	// Model returns the embedding model identifier
	Model() string

	// Provider returns the embedding provider name, which also names the
	// vector store collection
	Provider() string
}

// NewClient builds the embedding client paired with a chat provider. For
// "anthropic" the Voyage AI API is used when VOYAGE_API_KEY is set; without
// it the local model serves as the fallback.
func NewClient(provider, apiKey string) (Client, error) {
	switch provider {
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedding: openai requires an API key")
		}
		return NewOpenAIClient(apiKey), nil
	case "gemini", "google":
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedding: gemini requires an API key")
		}
		return NewGeminiClient(apiKey), nil
	case "anthropic":
		if key := os.Getenv("VOYAGE_API_KEY"); key != "" {
			return NewVoyageClient(key), nil
		}
		return NewLocalClient(), nil
	case "local":
		return NewLocalClient(), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", provider)
	}
}

const (
	maxAttempts = 3
	baseBackoff = time.Second
)

// postWithRetry sends a JSON POST and retries rate limits, server errors,
// and transport failures with exponential backoff
func postWithRetry(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(respBody))
			continue
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbedFailed, resp.StatusCode, truncateBody(respBody))
	}
	return nil, fmt.Errorf("%w: retries exhausted: %v", ErrEmbedFailed, lastErr)
}

// truncateBody keeps error messages readable when APIs return large payloads
func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
