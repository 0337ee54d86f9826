package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

func TestEmbedPreservesInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Deliberately reversed rows; the index field must win.
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", "text-embedding-3-small", Options{Timeout: time.Second})
	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("rows not reordered by index: %v", vectors)
	}
}

func TestEmbedBatchesLargeInputs(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		batchSizes = append(batchSizes, len(req.Input))

		resp := embedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{Timeout: time.Second, BatchSize: 2})
	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := client.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if len(batchSizes) != 3 || batchSizes[0] != 2 || batchSizes[2] != 1 {
		t.Fatalf("unexpected batching: %v", batchSizes)
	}
}

func TestEmbedWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{Timeout: time.Second})
	_, err := client.Embed(context.Background(), []string{"hello"})
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestEmbedRejectsRaggedDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"index":0,"embedding":[1,0,0]},
			{"index":1,"embedding":[0,1]}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{Timeout: time.Second})
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedQueryReturnsSingleVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.5]}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{Timeout: time.Second})
	vector, err := client.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 2 {
		t.Fatalf("expected dimension 2, got %d", len(vector))
	}
}
