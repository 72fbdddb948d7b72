package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const localDimensions = 384

// LocalClient produces deterministic embeddings without any network calls
// using signed feature hashing over word tokens. Quality is far below hosted
// models, but it keeps retrieval working when no embedding API is available.
type LocalClient struct{}

// NewLocalClient creates the offline embedding client
func NewLocalClient() *LocalClient {
	return &LocalClient{}
}

// Provider returns "local"
func (c *LocalClient) Provider() string { return "local" }

// Model returns "local-hash-v1"
func (c *LocalClient) Model() string { return "local-hash-v1" }

// Dimensions returns 384
func (c *LocalClient) Dimensions() int { return localDimensions }

// EmbedDocuments embeds each text independently
func (c *LocalClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = hashEmbed(text)
	}
	return embeddings, nil
}

// EmbedQuery embeds a single search query
func (c *LocalClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

// hashEmbed maps word tokens into a fixed-size vector. Each token lands in
// one dimension chosen by its hash; a second hash bit picks the sign so
// unrelated texts stay near orthogonal. The result is L2-normalized.
func hashEmbed(text string) []float32 {
	vec := make([]float32, localDimensions)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()

		idx := int(sum % localDimensions)
		sign := float32(1)
		if (sum>>16)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// tokenize lowercases and splits on anything that is not a letter or digit
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
