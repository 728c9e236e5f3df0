package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answer_engine.go -package=mocks koqa/internal/handlers AnswerEngine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"koqa/internal/contextutil"
	"koqa/internal/indexer"
	"koqa/internal/rag"
)

// AnswerEngine answers questions over the indexed documents.
// Defined from the handler's perspective; *rag.Engine satisfies it.
type AnswerEngine interface {
	Ask(ctx context.Context, question string, debug bool) (*rag.AskResponse, error)
}

// AskHandler handles HTTP requests for document-grounded questions.
type AskHandler struct {
	engine         AnswerEngine
	pipeline       *indexer.Pipeline
	embeddingModel string
}

// NewAskHandler creates a new AskHandler. pipeline may be nil; it is only
// used to attach coverage stats to debug responses.
func NewAskHandler(engine AnswerEngine, pipeline *indexer.Pipeline, embeddingModel string) *AskHandler {
	return &AskHandler{
		engine:         engine,
		pipeline:       pipeline,
		embeddingModel: embeddingModel,
	}
}

// AskRequest is the HTTP request payload for questions.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the HTTP response payload for questions.
type AskResponse struct {
	Answer     string          `json:"answer"`
	References []rag.Reference `json:"references,omitempty"`
	Debug      *AskDebug       `json:"debug,omitempty"`
}

// AskDebug carries retrieval internals and index coverage for ?debug=1.
type AskDebug struct {
	Mode              string                 `json:"mode"`
	FilterDescription string                 `json:"filter_description,omitempty"`
	Matched           int                    `json:"matched"`
	Context           string                 `json:"context,omitempty"`
	Coverage          *indexer.CoverageStats `json:"coverage,omitempty"`
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles a question and returns the generated answer.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	debug := parseDebugParam(r)

	ragResp, err := h.engine.Ask(ctx, req.Question, debug)
	if err != nil {
		h.handleEngineError(w, ctx, err)
		return
	}

	resp := AskResponse{
		Answer:     ragResp.Answer,
		References: ragResp.References,
	}

	if ragResp.Debug != nil {
		resp.Debug = &AskDebug{
			Mode:              ragResp.Debug.Mode,
			FilterDescription: ragResp.Debug.FilterDescription,
			Matched:           ragResp.Debug.Matched,
			Context:           ragResp.Debug.Context,
		}
		if h.pipeline != nil && h.embeddingModel != "" {
			stats, err := h.pipeline.CoverageStats(ctx, h.embeddingModel)
			if err != nil {
				logger.WarnContext(ctx, "failed to get coverage stats", "error", err)
			} else {
				resp.Debug.Coverage = stats
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleEngineError maps the engine's failure classes to HTTP statuses.
func (h *AskHandler) handleEngineError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "answer engine error", "error", err)

	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "Question is required")
	case errors.Is(err, rag.ErrRetrieval):
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
	case errors.Is(err, rag.ErrEmbedding), errors.Is(err, rag.ErrGeneration):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
	}
}

// parseDebugParam reads the ?debug= query parameter.
func parseDebugParam(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("debug"))
	return v == "true" || v == "1"
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
