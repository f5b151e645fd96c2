package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicbudget/pbb-api/internal/config"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected model %q", req.Model)
		}
		// Return vectors out of order to exercise index mapping.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.3, 0.4}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.OpenAI{URL: srv.URL, APIKey: "test-key", Model: "text-embedding-3-small"})
	if !c.Enabled() {
		t.Fatal("expected client enabled")
	}

	vecs, err := c.Embed(context.Background(), []string{"parks", "roads"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.3 {
		t.Errorf("index mapping wrong: %v", vecs)
	}
}

func TestEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(config.OpenAI{URL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := c.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient(config.OpenAI{URL: "http://localhost", Model: "m"})
	if c.Enabled() {
		t.Fatal("expected disabled without API key")
	}
}
