package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name             string
		provider         string
		apiKey           string
		voyageKey        string
		expectedProvider string
		expectErr        bool
	}{
		{"openai with key", "openai", "sk-test", "", "openai", false},
		{"openai without key", "openai", "", "", "", true},
		{"gemini", "gemini", "key", "", "gemini", false},
		{"google alias", "google", "key", "", "gemini", false},
		{"anthropic with voyage", "anthropic", "", "vk-test", "voyage", false},
		{"anthropic without voyage", "anthropic", "", "", "local", false},
		{"local", "local", "", "", "local", false},
		{"unknown", "cohere", "key", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("GOOGLE_API_KEY", "")
			t.Setenv("VOYAGE_API_KEY", tt.voyageKey)

			client, err := NewClient(tt.provider, tt.apiKey)
			if tt.expectErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to create client: %v", err)
			}
			if client.Provider() != tt.expectedProvider {
				t.Errorf("Expected provider %s, got %s", tt.expectedProvider, client.Provider())
			}
		})
	}
}

func TestLocalClient_Deterministic(t *testing.T) {
	client := NewLocalClient()
	ctx := context.Background()

	first, err := client.EmbedQuery(ctx, "delayed shipments to Boston")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	second, err := client.EmbedQuery(ctx, "delayed shipments to Boston")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}

	if len(first) != client.Dimensions() {
		t.Errorf("Expected %d dimensions, got %d", client.Dimensions(), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected deterministic embedding, differs at index %d", i)
		}
	}
}

func TestLocalClient_Normalized(t *testing.T) {
	client := NewLocalClient()

	vecs, err := client.EmbedDocuments(context.Background(), []string{
		"inventory forecast for oncology sites",
		"",
	})
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}

	for i, vec := range vecs {
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
			t.Errorf("Expected unit norm for vector %d, got %f", i, math.Sqrt(norm))
		}
	}
}

func TestLocalClient_SimilarTextsCloser(t *testing.T) {
	client := NewLocalClient()
	ctx := context.Background()

	base, _ := client.EmbedQuery(ctx, "shipment delayed cold chain temperature")
	similar, _ := client.EmbedQuery(ctx, "cold chain shipment temperature excursion")
	unrelated, _ := client.EmbedQuery(ctx, "enrollment projection statistics quarterly")

	if cosine(base, similar) <= cosine(base, unrelated) {
		t.Errorf("Expected overlapping text closer: similar=%f unrelated=%f",
			cosine(base, similar), cosine(base, unrelated))
	}
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestPostWithRetry_RecoversFromRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	body, err := postWithRetry(context.Background(), server.Client(), server.URL, nil, []byte(`{}`))
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if string(body) != `{"ok": true}` {
		t.Errorf("Unexpected body %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestPostWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer server.Close()

	_, err := postWithRetry(context.Background(), server.Client(), server.URL, nil, []byte(`{}`))
	if !errors.Is(err, ErrEmbedFailed) {
		t.Fatalf("Expected ErrEmbedFailed, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 attempt for client error, got %d", calls.Load())
	}
}

func TestOpenAIClient_EmbedDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		// Answer out of order to exercise index-based placement.
		resp := openAIEmbedResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(i), 1}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test")
	client.baseURL = server.URL

	vecs, err := client.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("Expected 3 embeddings, got %d", len(vecs))
	}
	for i, vec := range vecs {
		if vec[0] != float32(i) {
			t.Errorf("Expected embedding %d placed by index, got %v", i, vec)
		}
	}
}

func TestGeminiClient_EmbedDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiBatchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		fmt.Fprintf(w, `{"embeddings": [`)
		for i := range req.Requests {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"values": [%d, 2]}`, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	client := NewGeminiClient("key")
	client.baseURL = server.URL

	vecs, err := client.EmbedDocuments(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 {
		t.Errorf("Unexpected embeddings %v", vecs)
	}
}

func TestVoyageClient_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req voyageEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.InputType != "query" {
			t.Errorf("Expected input_type query, got %q", req.InputType)
		}
		w.Write([]byte(`{"data": [{"index": 0, "embedding": [0.5, 0.5]}]}`))
	}))
	defer server.Close()

	client := NewVoyageClient("vk-test")
	client.baseURL = server.URL

	vec, err := client.EmbedQuery(context.Background(), "how many sites are at risk")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("Unexpected embedding %v", vec)
	}
}
