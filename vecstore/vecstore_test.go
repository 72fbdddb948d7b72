package vecstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sallytsm/sally/internal/testutil"
)

func TestCollectionName(t *testing.T) {
	tests := []struct {
		provider string
		expected string
	}{
		{"openai", "sally_docs_openai"},
		{"gemini", "sally_docs_gemini"},
		{"anthropic", "sally_docs_anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := CollectionName(tt.provider); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// setupVectorStore skips unless DATABASE_URL points at a server with pgvector
func setupVectorStore(t *testing.T) (*Store, *testutil.TestDB) {
	t.Helper()
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	store := NewStore(db.Pool)
	if err := store.EnsureExtension(ctx); err != nil {
		db.Close()
		if errors.Is(err, ErrExtensionMissing) {
			t.Skip("Skipping vector store test: pgvector extension not available")
		}
		t.Fatalf("Failed to ensure extension: %v", err)
	}

	if _, err := db.Pool.Exec(ctx, `DELETE FROM vector_embeddings WHERE collection_name LIKE 'test_%'`); err != nil {
		db.Close()
		t.Fatalf("Failed to clean test collections: %v", err)
	}
	return store, db
}

func TestIntegration_Store_AddAndSearch(t *testing.T) {
	store, db := setupVectorStore(t)
	defer db.Close()
	ctx := context.Background()

	docs := []Document{
		{DocID: "doc-a", Content: "forecasting demand", Metadata: map[string]string{"topic": "forecast"}, Embedding: []float32{1, 0, 0}},
		{DocID: "doc-b", Content: "cold chain handling", Metadata: map[string]string{"topic": "shipping"}, Embedding: []float32{0, 1, 0}},
		{DocID: "doc-c", Content: "expiry management", Embedding: []float32{0.9, 0.1, 0}},
	}
	if err := store.AddDocuments(ctx, "test_search", docs); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, "test_search", []float32{1, 0, 0}, 4, 0)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].DocID != "doc-a" {
		t.Errorf("Expected doc-a first, got %s", results[0].DocID)
	}
	if results[0].Similarity < 0.99 {
		t.Errorf("Expected near-perfect similarity for doc-a, got %f", results[0].Similarity)
	}
	if results[0].Metadata["topic"] != "forecast" {
		t.Errorf("Expected metadata topic forecast, got %v", results[0].Metadata)
	}

	// A high threshold should keep only the aligned documents.
	filtered, err := store.SimilaritySearch(ctx, "test_search", []float32{1, 0, 0}, 4, 0.8)
	if err != nil {
		t.Fatalf("Failed to search with threshold: %v", err)
	}
	for _, r := range filtered {
		if r.DocID == "doc-b" {
			t.Error("Expected orthogonal doc-b filtered out by threshold")
		}
	}
	if len(filtered) == 0 {
		t.Error("Expected at least one result above threshold")
	}
}

func TestIntegration_Store_UpsertOverwrites(t *testing.T) {
	store, db := setupVectorStore(t)
	defer db.Close()
	ctx := context.Background()

	doc := Document{DocID: "doc-x", Content: "first version", Embedding: []float32{1, 0, 0}}
	if err := store.AddDocuments(ctx, "test_upsert", []Document{doc}); err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	doc.Content = "second version"
	if err := store.AddDocuments(ctx, "test_upsert", []Document{doc}); err != nil {
		t.Fatalf("Failed to upsert document: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, "test_upsert", []float32{1, 0, 0}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 document after upsert, got %d", len(results))
	}
	if results[0].Content != "second version" {
		t.Errorf("Expected overwritten content, got %q", results[0].Content)
	}
}

func TestIntegration_Store_StatsAndDelete(t *testing.T) {
	store, db := setupVectorStore(t)
	defer db.Close()
	ctx := context.Background()

	docs := []Document{
		{DocID: "doc-1", Content: "one", Embedding: []float32{1, 0}},
		{DocID: "doc-2", Content: "two", Embedding: []float32{0, 1}},
	}
	if err := store.AddDocuments(ctx, "test_stats", docs); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if !stats.Installed {
		t.Error("Expected extension installed in stats")
	}
	found := false
	for _, c := range stats.Collections {
		if c.Name == "test_stats" && c.Documents == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected test_stats collection with 2 documents, got %+v", stats.Collections)
	}

	deleted, err := store.DeleteCollection(ctx, "test_stats")
	if err != nil {
		t.Fatalf("Failed to delete collection: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 documents deleted, got %d", deleted)
	}

	results, err := store.SimilaritySearch(ctx, "test_stats", []float32{1, 0}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to search after delete: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty collection after delete, got %d results", len(results))
	}
}

func TestStore_AddDocumentsValidation(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if err := store.AddDocuments(ctx, "", []Document{{DocID: "d", Embedding: []float32{1}}}); err == nil {
		t.Error("Expected error for missing collection")
	}
	if err := store.AddDocuments(ctx, "c", []Document{{Content: "no id", Embedding: []float32{1}}}); err == nil {
		t.Error("Expected error for missing doc_id")
	}
	if err := store.AddDocuments(ctx, "c", []Document{{DocID: "d", Content: "no embedding"}}); err == nil {
		t.Error("Expected error for missing embedding")
	}
	if err := store.AddDocuments(ctx, "c", nil); err != nil {
		t.Errorf("Expected nil error for empty batch, got %v", err)
	}
}
