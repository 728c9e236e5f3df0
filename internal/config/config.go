package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// MinIO object storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	// Local document storage
	DocsDir string
	DBPath  string

	// Qdrant vector store
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	// Embedding server (OpenAI-compatible API)
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string

	// Ollama LLM runtime
	OllamaBaseURL string
	OllamaModel   string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	RetrievalK int

	// Keyword boosting
	KeywordBoostWeight float64
	MaxKeywordBoost    float64

	// Server
	APIPort   string
	LogLevel  string
	LogFormat string
	WatchDocs bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:      getEnv("MINIO_BUCKET", "documents"),
		DocsDir:          getEnv("DOCS_DIR", "./docs"),
		DBPath:           getEnv("DB_PATH", "./data/koqa.db"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", "dummy-key"),
		// ko-sroberta is the Korean sentence embedding model the index is built with.
		// Changing the model requires re-embedding every stored chunk.
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "ko-sroberta-multitask"),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3:latest"),
		APIPort:        getEnv("API_PORT", "9000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	cfg.MinioSecure = getEnv("MINIO_SECURE", "false") == "true"
	cfg.WatchDocs = getEnv("WATCH_DOCS", "false") == "true"

	// Parse QDRANT_VECTOR_SIZE
	// This must match the output vector size of the embedding model
	// (768 for ko-sroberta-multitask). If the vector size changes, the
	// Qdrant collection must be recreated and all documents re-indexed.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 500)
	if err != nil {
		return nil, err
	}
	cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50)
	if err != nil {
		return nil, err
	}
	cfg.RetrievalK, err = getEnvInt("RETRIEVAL_K", 20)
	if err != nil {
		return nil, err
	}
	cfg.KeywordBoostWeight, err = getEnvFloat("KEYWORD_BOOST_WEIGHT", 0.1)
	if err != nil {
		return nil, err
	}
	cfg.MaxKeywordBoost, err = getEnvFloat("MAX_KEYWORD_BOOST", 0.3)
	if err != nil {
		return nil, err
	}

	// Validate chunking parameters
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if cfg.RetrievalK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_K must be greater than 0")
	}

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

// getEnvFloat gets a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}
