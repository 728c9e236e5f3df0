package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"koqa/internal/contextutil"
	"koqa/internal/indexer"
	"koqa/internal/syncer"
)

// SyncHandler triggers a bucket sync followed by reindexing.
type SyncHandler struct {
	syncer   *syncer.Syncer
	pipeline *indexer.Pipeline
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(s *syncer.Syncer, pipeline *indexer.Pipeline) *SyncHandler {
	return &SyncHandler{
		syncer:   s,
		pipeline: pipeline,
	}
}

// SyncResponse is the HTTP response for sync requests.
type SyncResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP downloads changed bucket objects and reindexes in the
// background. ?force=true drops all indexed data first.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	logger.InfoContext(ctx, "sync triggered via API", "force", force)

	// The sync and reindex outlive the HTTP request, so run them on a
	// background context.
	go func() {
		syncCtx := contextutil.WithLogger(context.Background(), logger)

		if force {
			if err := h.pipeline.ClearAll(syncCtx); err != nil {
				logger.ErrorContext(syncCtx, "failed to clear indexed data", "error", err)
				return
			}
			logger.InfoContext(syncCtx, "cleared all indexed data")
		}

		// A failed bucket sync still leaves the local documents usable,
		// so indexing proceeds either way.
		changed, err := h.syncer.Sync(syncCtx)
		if err != nil {
			logger.ErrorContext(syncCtx, "bucket sync failed, indexing local documents only", "error", err)
		} else {
			logger.InfoContext(syncCtx, "bucket sync complete", "changed", len(changed))
		}

		if err := h.pipeline.IndexAll(syncCtx); err != nil {
			logger.ErrorContext(syncCtx, "reindexing completed with errors", "error", err)
		} else {
			logger.InfoContext(syncCtx, "reindexing completed")
		}
	}()

	message := "Sync and indexing started. Check server logs for progress."
	if force {
		message = "Force sync started (all indexed data cleared). Check server logs for progress."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(SyncResponse{
		Message: message,
		Status:  "accepted",
	})
}
