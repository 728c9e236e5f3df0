package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"koqa/internal/contextutil"
	"koqa/internal/vectorstore"
)

// HealthHandler reports the health of the system and its dependencies.
type HealthHandler struct {
	vectorStore        vectorstore.VectorStore
	collection         string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(vectorStore vectorstore.VectorStore, collection string) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		collection:         collection,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Points    int               `json:"points,omitempty"`
	Issues    []string          `json:"issues,omitempty"`
}

// collectionInfoProvider is satisfied by *vectorstore.QdrantStore; stores
// without point counts just omit the field.
type collectionInfoProvider interface {
	GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// ServeHTTP returns 200 when healthy, 503 when a dependency is down.
// The LLM is intentionally not probed here: a chat round trip is too slow
// for a health check, and the vector store is the critical dependency.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	var points int
	if h.checkVectorStore(checkCtx, logger) {
		checks["vector_store"] = "ok"
		if provider, ok := h.vectorStore.(collectionInfoProvider); ok {
			if info, err := provider.GetCollectionInfo(checkCtx, h.collection); err == nil {
				points = info.PointsCount
			}
		}
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Points:    points,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collection)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collection)
		return false
	}
	return true
}
