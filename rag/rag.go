// Package rag retrieves grounding context for the assistant. Documents are
// embedded with the active provider's client and stored in a per-provider
// vector collection so switching providers never mixes dimensions.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sallytsm/sally/embedding"
	"github.com/sallytsm/sally/storage"
	"github.com/sallytsm/sally/vecstore"
)

// Default retrieval configuration values
const (
	DefaultTopK          = 4
	DefaultMinSimilarity = 0.0
)

// Config holds configuration for the retrieval service.
type Config struct {
	// TopK is how many documents each search returns.
	// Default: 4
	TopK int

	// MinSimilarity drops results below this cosine similarity.
	// Default: 0 (keep everything)
	MinSimilarity float64
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() *Config {
	return &Config{
		TopK:          DefaultTopK,
		MinSimilarity: DefaultMinSimilarity,
	}
}

// Service ties the embedding client, vector store, and query log together
type Service struct {
	vec      *vecstore.Store
	embedder embedding.Client
	store    storage.Store
	config   *Config
}

// NewService creates a retrieval service. store may be nil when query
// logging is not needed.
func NewService(vec *vecstore.Store, embedder embedding.Client, store storage.Store, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	return &Service{
		vec:      vec,
		embedder: embedder,
		store:    store,
		config:   config,
	}
}

// Collection returns the vector collection this service reads and writes
func (s *Service) Collection() string {
	return vecstore.CollectionName(s.embedder.Provider())
}

// Embedder returns the embedding client in use
func (s *Service) Embedder() embedding.Client {
	return s.embedder
}

// VectorStats reports the state of the underlying vector store
func (s *Service) VectorStats(ctx context.Context) (*vecstore.Stats, error) {
	return s.vec.Stats(ctx)
}

// Bootstrap ensures the vector store is usable and ingests the built-in
// knowledge base when the collection is still empty
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.vec.EnsureExtension(ctx); err != nil {
		return err
	}

	stats, err := s.vec.Stats(ctx)
	if err != nil {
		return err
	}
	for _, c := range stats.Collections {
		if c.Name == s.Collection() && c.Documents > 0 {
			return nil
		}
	}

	_, err = s.IngestDocuments(ctx, KnowledgeBase())
	return err
}

// IngestDocuments embeds and upserts documents into this service's
// collection, returning the number of documents written
func (s *Service) IngestDocuments(ctx context.Context, docs []vecstore.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return 0, fmt.Errorf("embedded %d of %d documents", len(embeddings), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = embeddings[i]
	}

	if err := s.vec.AddDocuments(ctx, s.Collection(), docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Search retrieves the documents most similar to the query. k <= 0 uses the
// configured TopK.
func (s *Service) Search(ctx context.Context, query string, k int) ([]vecstore.SearchResult, error) {
	if k <= 0 {
		k = s.config.TopK
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.vec.SimilaritySearch(ctx, s.Collection(), queryVec, k, s.config.MinSimilarity)
}

// BuildContext retrieves documents for a question and formats them into a
// prompt context block, returning the block and the source labels
func (s *Service) BuildContext(ctx context.Context, question string) (string, []string, error) {
	results, err := s.Search(ctx, question, 0)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
		source := r.Metadata["source"]
		if source == "" {
			source = r.DocID
		}
		sources = append(sources, source)
	}
	return strings.Join(parts, "\n\n"), sources, nil
}

// LogQuery records an answered question in the query log. A missing QueryID
// or CreatedAt is filled in.
func (s *Service) LogQuery(ctx context.Context, q *storage.AssistantQuery) error {
	if s.store == nil {
		return nil
	}
	if q.QueryID == "" {
		q.QueryID = "qry_" + uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	return s.store.InsertQuery(ctx, q)
}

// History returns recent answered questions, newest first
func (s *Service) History(ctx context.Context, limit int) ([]*storage.AssistantQuery, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListQueries(ctx, limit)
}

// Feedback records whether an answer was helpful
func (s *Service) Feedback(ctx context.Context, queryID string, helpful bool) error {
	if s.store == nil {
		return fmt.Errorf("query log is not configured")
	}
	return s.store.SetQueryFeedback(ctx, queryID, helpful)
}
