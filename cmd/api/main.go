package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"koqa/internal/config"
	"koqa/internal/http"
	"koqa/internal/indexer"
	"koqa/internal/llm"
	"koqa/internal/objstore"
	"koqa/internal/rag"
	"koqa/internal/service"
	"koqa/internal/storage"
	"koqa/internal/syncer"
	"koqa/internal/vectorstore"
	"koqa/internal/watcher"
	"koqa/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	configureLogging(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	ctx := context.Background()

	store, err := objstore.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioSecure)
	if err != nil {
		log.Fatalf("Failed to create MinIO client: %v", err)
	}
	if err := store.EnsureBucket(ctx, cfg.MinioBucket); err != nil {
		log.Fatalf("Failed to ensure MinIO bucket: %v", err)
	}
	slog.Info("Object storage ready", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)

	docSyncer := syncer.New(store, cfg.MinioBucket, cfg.DocsDir)

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Fail fast when the embedding server is down or serves a model with
	// the wrong dimensionality.
	embedder := llm.NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.QdrantVectorSize)
	if _, err := embedder.EmbedTexts(ctx, []string{"연결 확인"}); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.QdrantVectorSize)

	pipeline := indexer.NewPipeline(
		docSyncer,
		docRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.ChunkSize,
		cfg.ChunkOverlap,
	)

	ollama := llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)

	engine := rag.NewEngine(
		vectorStore,
		embedder,
		ollama,
		cfg.QdrantCollection,
		cfg.RetrievalK,
		cfg.KeywordBoostWeight,
		cfg.MaxKeywordBoost,
	)
	slog.Info("Answer engine initialized", "model", cfg.OllamaModel, "retrieval_k", cfg.RetrievalK)

	router := http.NewRouter(&http.Deps{
		Engine:         engine,
		ChatService:    service.NewChatService(ollama),
		Pipeline:       pipeline,
		Syncer:         docSyncer,
		VectorStore:    vectorStore,
		Collection:     cfg.QdrantCollection,
		EmbeddingModel: cfg.EmbeddingModel,
		IndexHTML:      web.IndexHTML,
	})

	// Initial sync and indexing run in the background so the API is
	// reachable immediately.
	go func() {
		bgCtx := context.Background()
		slog.Info("Starting background sync and indexing")
		changed, err := docSyncer.Sync(bgCtx)
		if err != nil {
			slog.Error("Bucket sync failed", "error", err)
		} else {
			slog.Info("Bucket sync complete", "changed", len(changed))
		}
		if err := pipeline.IndexAll(bgCtx); err != nil {
			slog.Error("Indexing completed with errors", "error", err)
		} else {
			slog.Info("Indexing completed successfully")
		}
	}()

	if cfg.WatchDocs {
		go func() {
			w := watcher.New(cfg.DocsDir, pipeline)
			if err := w.Run(context.Background()); err != nil {
				slog.Error("Document watcher stopped", "error", err)
			}
		}()
	}

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// configureLogging sets the default slog logger from config.
func configureLogging(level, format string) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
