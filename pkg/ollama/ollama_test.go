package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "late fees" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "nomic-embed-text")
	got, err := c.Embed(context.Background(), "late fees")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 3 || got[1] != 0.2 {
		t.Errorf("embedding: %v", got)
	}
}

func TestEmbedBatch_FailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "m")
	_, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if calls != 2 {
		t.Errorf("expected fail-fast after second call, got %d calls", calls)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("generation must be non-streaming")
		}
		if req.Options["num_predict"].(float64) != 256 {
			t.Errorf("num_predict: %v", req.Options["num_predict"])
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "Customers dispute recurring late fees.", Done: true})
	}))
	defer srv.Close()

	c := NewGenerateClient(srv.URL, "llama3.1:8b").WithSampling(256, 0.3)
	got, err := c.Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Customers dispute recurring late fees." {
		t.Errorf("response: %q", got)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewGenerateClient(srv.URL, "missing")
	if _, err := c.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
