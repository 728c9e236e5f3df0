package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible embeddings
// API. The on-prem embedding server (ko-sroberta behind an OpenAI-compatible
// facade) speaks the same wire format.
type OpenAIEmbedder struct {
	client       *openai.Client
	model        string
	expectedSize int
}

// NewOpenAIEmbedder creates a new embedder client.
// expectedSize is the vector size the Qdrant collection was created with.
// Every returned vector is validated against it.
func NewOpenAIEmbedder(baseURL, apiKey, model string, expectedSize int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"

	return &OpenAIEmbedder{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		expectedSize: expectedSize,
	}
}

// EmbedTexts generates embeddings for the given texts.
// Returns one float32 vector per input text, in input order.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != e.expectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), e.expectedSize)
		}
		result[i] = data.Embedding
	}

	return result, nil
}

// EmbedQuery generates an embedding for a single query string.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
