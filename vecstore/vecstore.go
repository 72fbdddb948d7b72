// Package vecstore provides a PostgreSQL vector store backed by the pgvector
// extension. Documents from every embedding provider share one table; each
// provider writes to its own collection so differing dimensions never mix.
package vecstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrExtensionMissing indicates the pgvector extension is not installed
var ErrExtensionMissing = errors.New("vecstore: pgvector extension not installed")

// Store persists and searches document embeddings
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a vector store on the given pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Document is one chunk of text with its embedding
type Document struct {
	DocID     string            `json:"doc_id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"-"`
}

// SearchResult is one similarity-search hit
type SearchResult struct {
	DocID      string            `json:"doc_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}

// CollectionName returns the collection used for a provider's documents
func CollectionName(provider string) string {
	return "sally_docs_" + provider
}

// ExtensionInstalled reports whether the pgvector extension is present
func (s *Store) ExtensionInstalled(ctx context.Context) (bool, error) {
	var installed bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')
	`).Scan(&installed)
	if err != nil {
		return false, fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	return installed, nil
}

// EnsureExtension installs the pgvector extension if possible and creates the
// embeddings table. Returns ErrExtensionMissing when the extension cannot be
// created (typically because it is not available on the server).
func (s *Store) EnsureExtension(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("%w: %v", ErrExtensionMissing, err)
	}
	return s.ensureTable(ctx)
}

// ensureTable creates the shared embeddings table. The embedding column is
// declared without a dimension so collections of different sizes coexist.
func (s *Store) ensureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vector_embeddings (
			embedding_id    BIGSERIAL PRIMARY KEY,
			doc_id          VARCHAR(255) NOT NULL,
			collection_name VARCHAR(255) NOT NULL,
			content         TEXT NOT NULL,
			metadata        JSONB NOT NULL DEFAULT '{}',
			embedding       vector NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (doc_id, collection_name)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector_embeddings: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_vector_embeddings_collection
		ON vector_embeddings (collection_name)
	`)
	if err != nil {
		return fmt.Errorf("failed to index vector_embeddings: %w", err)
	}
	return nil
}

// AddDocuments upserts documents into a collection. Existing documents with
// the same doc_id are overwritten with the new content and embedding.
func (s *Store) AddDocuments(ctx context.Context, collection string, docs []Document) error {
	if collection == "" {
		return fmt.Errorf("collection is required")
	}
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		if doc.DocID == "" {
			return fmt.Errorf("document is missing doc_id")
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %s has no embedding", doc.DocID)
		}
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		batch.Queue(`
			INSERT INTO vector_embeddings (doc_id, collection_name, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (doc_id, collection_name) DO UPDATE SET
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding,
				created_at = NOW()
		`, doc.DocID, collection, doc.Content, metadata, pgvector.NewVector(doc.Embedding))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range docs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}
	}
	return results.Close()
}

// SimilaritySearch returns the k documents nearest to the query embedding by
// cosine distance. Results below the similarity threshold are dropped.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, query []float32, k int, threshold float64) ([]SearchResult, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is required")
	}
	if k <= 0 {
		k = 4
	}

	rows, err := s.pool.Query(ctx, `
		SELECT doc_id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM vector_embeddings
		WHERE collection_name = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(query), collection, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Content, &r.Metadata, &r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if r.Similarity >= threshold {
			results = append(results, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}

// CollectionStats is the document count for one collection
type CollectionStats struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// Stats describes the state of the vector store
type Stats struct {
	Installed      bool              `json:"installed"`
	TotalDocuments int               `json:"total_documents"`
	Collections    []CollectionStats `json:"collections"`
}

// Stats reports the extension state and per-collection document counts
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	installed, err := s.ExtensionInstalled(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{Installed: installed, Collections: []CollectionStats{}}
	if !installed {
		return stats, nil
	}

	var tableExists bool
	err = s.pool.QueryRow(ctx, `SELECT to_regclass('vector_embeddings') IS NOT NULL`).Scan(&tableExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check embeddings table: %w", err)
	}
	if !tableExists {
		return stats, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT collection_name, COUNT(*)
		FROM vector_embeddings
		GROUP BY collection_name
		ORDER BY collection_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs CollectionStats
		if err := rows.Scan(&cs.Name, &cs.Documents); err != nil {
			return nil, fmt.Errorf("failed to scan collection stats: %w", err)
		}
		stats.Collections = append(stats.Collections, cs)
		stats.TotalDocuments += cs.Documents
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection stats: %w", err)
	}
	return stats, nil
}

// DeleteCollection removes every document in a collection, returning the
// number of documents deleted
func (s *Store) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("collection is required")
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM vector_embeddings WHERE collection_name = $1
	`, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	return tag.RowsAffected(), nil
}
