package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"koqa/internal/handlers"
	"koqa/internal/indexer"
	"koqa/internal/service"
	"koqa/internal/syncer"
	"koqa/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine         handlers.AnswerEngine
	ChatService    service.ChatService
	Pipeline       *indexer.Pipeline
	Syncer         *syncer.Syncer
	VectorStore    vectorstore.VectorStore
	Collection     string
	EmbeddingModel string
	IndexHTML      string
}

// NewRouter creates the HTTP router with all API routes and the web UI.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Engine, deps.Pipeline, deps.EmbeddingModel)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	syncHandler := handlers.NewSyncHandler(deps.Syncer, deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodPost, "/sync", syncHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(deps.IndexHTML))
	})

	return r
}
