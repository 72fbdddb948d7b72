package llm

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
)

// TokenCounter provides token counting with caching. When no Anthropic
// client is available it falls back to character-based approximation.
type TokenCounter struct {
	client *anthropic.Client
	mu     sync.Mutex
	cache  map[string]int
}

// NewTokenCounter creates a token counter. client may be nil, in which case
// every count is approximated.
func NewTokenCounter(client *anthropic.Client) *TokenCounter {
	return &TokenCounter{
		client: client,
		cache:  make(map[string]int),
	}
}

// CountTokens counts tokens for content using the counting API when a client
// is configured, with approximation as the fallback
func (c *TokenCounter) CountTokens(ctx context.Context, model string, content string) (int, error) {
	if content == "" {
		return 0, nil
	}
	if c.client == nil {
		return ApproximateTokens(content), nil
	}

	cacheKey := c.cacheKey(model, content)
	c.mu.Lock()
	if count, ok := c.cache[cacheKey]; ok {
		c.mu.Unlock()
		return count, nil
	}
	c.mu.Unlock()

	resp, err := c.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model: anthropic.Model(model),
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(content),
				},
			},
		},
	})
	if err != nil {
		return ApproximateTokens(content), nil
	}

	count := int(resp.InputTokens)
	c.mu.Lock()
	c.cache[cacheKey] = count
	c.mu.Unlock()
	return count, nil
}

// ApproximateTokens provides fast estimation without an API call, at roughly
// four characters per token
func ApproximateTokens(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + 3) / 4
}

// cacheKey generates a cache key for content
func (c *TokenCounter) cacheKey(model, content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s:%x", model, hash[:8])
}
