package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaClient is a client for the Ollama chat API.
type OllamaClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewOllamaClient creates a new Ollama chat client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		BaseURL: baseURL,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents the request payload for the Ollama chat API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse represents a single response object from the Ollama chat API.
// In streaming mode the API emits one of these per line (NDJSON).
type chatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Chat sends a chat request and returns the complete response.
func (c *OllamaClient) Chat(ctx context.Context, system, user string) (string, error) {
	url := fmt.Sprintf("%s/api/chat", c.BaseURL)

	payload := chatRequest{
		Model:    c.Model,
		Messages: buildMessages(system, user),
		Stream:   false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// StreamChat sends a streaming chat request. Ollama streams newline-delimited
// JSON objects; callback is invoked for each non-empty content chunk.
func (c *OllamaClient) StreamChat(ctx context.Context, system, user string, callback func(chunk string) error) error {
	url := fmt.Sprintf("%s/api/chat", c.BaseURL)

	payload := chatRequest{
		Model:    c.Model,
		Messages: buildMessages(system, user),
		Stream:   true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	scanner := bufio.NewScanner(resp.Body)
	// Model output lines can exceed the default 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var streamResp chatResponse
		if err := json.Unmarshal(line, &streamResp); err != nil {
			// Skip malformed JSON lines
			continue
		}

		if streamResp.Message.Content != "" {
			if err := callback(streamResp.Message.Content); err != nil {
				return fmt.Errorf("callback error: %w", err)
			}
		}

		if streamResp.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}

	return nil
}

func buildMessages(system, user string) []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: user})
	return messages
}
