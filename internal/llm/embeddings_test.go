package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// embeddingsHandler serves an OpenAI-compatible /v1/embeddings endpoint that
// returns one vector of the given size per input text.
func embeddingsHandler(t *testing.T, size int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()

		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		type embeddingData struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]embeddingData, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, size)
			for j := range vec {
				vec[j] = float32(i) + 0.1
			}
			data[i] = embeddingData{Object: "embedding", Index: i, Embedding: vec}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	server := httptest.NewServer(embeddingsHandler(t, 768))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL, "dummy-key", "ko-sroberta-multitask", 768)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"첫 번째", "두 번째"})
	if err != nil {
		t.Fatalf("EmbedTexts() failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != 768 {
			t.Errorf("vector %d has size %d, want 768", i, len(vec))
		}
	}
}

func TestOpenAIEmbedder_EmbedTexts_EmptyInput(t *testing.T) {
	embedder := NewOpenAIEmbedder("http://localhost:8081", "dummy-key", "ko-sroberta-multitask", 768)

	_, err := embedder.EmbedTexts(context.Background(), nil)
	if err == nil {
		t.Error("EmbedTexts() with empty input should return error")
	}
}

func TestOpenAIEmbedder_EmbedTexts_SizeMismatch(t *testing.T) {
	server := httptest.NewServer(embeddingsHandler(t, 384))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL, "dummy-key", "ko-sroberta-multitask", 768)

	_, err := embedder.EmbedTexts(context.Background(), []string{"텍스트"})
	if err == nil {
		t.Error("EmbedTexts() should fail when vector size does not match")
	}
}

func TestOpenAIEmbedder_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(embeddingsHandler(t, 768))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL, "dummy-key", "ko-sroberta-multitask", 768)

	vec, err := embedder.EmbedQuery(context.Background(), "4월 행사")
	if err != nil {
		t.Fatalf("EmbedQuery() failed: %v", err)
	}
	if len(vec) != 768 {
		t.Errorf("vector size = %d, want 768", len(vec))
	}
}
