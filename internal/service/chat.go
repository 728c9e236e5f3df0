package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks koqa/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService koqa/internal/service ChatService

import (
	"context"
	"strings"

	"koqa/internal/contextutil"
)

// chatSystemPrompt keeps plain chat (no document retrieval) in Korean.
const chatSystemPrompt = "당신은 친절한 한국어 AI 어시스턴트입니다. 모든 답변은 반드시 한국어로 작성하세요."

// LLMClient is the chat surface the service layer needs from the LLM runtime.
// Defined from the consumer's perspective; *llm.OllamaClient satisfies it.
type LLMClient interface {
	// Chat sends a message with a system prompt and returns the full reply.
	Chat(ctx context.Context, system, user string) (string, error)
	// StreamChat streams the reply via callback, one chunk at a time.
	StreamChat(ctx context.Context, system, user string, callback func(chunk string) error) error
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message string
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Reply string
}

// ChatService provides plain chat with the LLM, without document retrieval.
type ChatService interface {
	// ProcessChat processes a chat request and returns a response.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamChat processes a chat request and streams the response via callback.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error
}

type chatService struct {
	llmClient LLMClient
}

// NewChatService creates a new ChatService.
func NewChatService(llmClient LLMClient) ChatService {
	return &chatService{llmClient: llmClient}
}

func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	reply, err := s.llmClient.Chat(ctx, chatSystemPrompt, message)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return ChatResponse{}, LLMFailure("failed to get LLM response", err)
	}

	logger.InfoContext(ctx, "chat request processed", "message_length", len(message), "reply_length", len(reply))
	return ChatResponse{Reply: reply}, nil
}

func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in streaming chat request")
		return &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	if err := s.llmClient.StreamChat(ctx, chatSystemPrompt, message, callback); err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
		return LLMFailure("failed to stream LLM response", err)
	}

	logger.InfoContext(ctx, "streaming chat request processed", "message_length", len(message))
	return nil
}
