package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks koqa/internal/llm Embedder,ChatClient

import "context"

// Embedder generates embedding vectors for text.
type Embedder interface {
	// EmbedTexts generates one embedding per input text.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatClient generates chat completions from a language model.
type ChatClient interface {
	// Chat sends a system and user message and returns the full response.
	Chat(ctx context.Context, system, user string) (string, error)

	// StreamChat streams the response, calling callback for each chunk.
	StreamChat(ctx context.Context, system, user string, callback func(chunk string) error) error
}
