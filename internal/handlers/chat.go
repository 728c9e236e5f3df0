package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"koqa/internal/contextutil"
	"koqa/internal/service"
)

// ChatHandler handles HTTP requests for plain chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest is the HTTP request payload for chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the HTTP response payload for chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ServeHTTP handles a chat request. ?stream=true switches to Server-Sent
// Events with one data frame per reply chunk and a final [DONE] frame.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{Message: req.Message})
	if err != nil {
		h.handleServiceError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ChatResponse{Reply: svcResp.Reply}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleStreamingChat streams the reply as Server-Sent Events.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body for streaming", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	err := h.chatService.StreamChat(ctx, service.ChatRequest{Message: req.Message}, func(chunk string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		_, _ = fmt.Fprintf(w, "data: {\"error\":%q}\n\n", err.Error())
		flusher.Flush()
		return
	}

	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleServiceError maps service errors to HTTP status codes.
func (h *ChatHandler) handleServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "service error", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	if errors.Is(err, service.ErrLLMUnavailable) {
		writeError(w, http.StatusBadGateway, "LLM unavailable")
		return
	}

	writeError(w, http.StatusInternalServerError, "Failed to process chat request")
}
