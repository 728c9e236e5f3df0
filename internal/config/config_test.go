package config

import (
	"os"
	"path/filepath"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var configEnvVars = []string{
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_SECURE",
	"DOCS_DIR", "DB_PATH",
	"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE",
	"EMBEDDING_BASE_URL", "EMBEDDING_API_KEY", "EMBEDDING_MODEL",
	"OLLAMA_BASE_URL", "OLLAMA_MODEL",
	"CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_K",
	"KEYWORD_BOOST_WEIGHT", "MAX_KEYWORD_BOOST",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "WATCH_DOCS",
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	for _, key := range configEnvVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "valid config with required fields only",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "koqa.db"))
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.QdrantVectorSize == 768 &&
					cfg.MinioBucket == "documents" &&
					cfg.ChunkSize == 500 &&
					cfg.ChunkOverlap == 50 &&
					cfg.RetrievalK == 20 &&
					cfg.KeywordBoostWeight == 0.1 &&
					cfg.MaxKeywordBoost == 0.3 &&
					cfg.OllamaModel == "llama3:latest" &&
					cfg.EmbeddingModel == "ko-sroberta-multitask"
			},
		},
		{
			name:     "missing vector size",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "invalid vector size",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "zero vector size",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "0")
			},
			wantErr: true,
		},
		{
			name: "overlap must be smaller than chunk size",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("CHUNK_SIZE", "100")
				setEnv("CHUNK_OVERLAP", "100")
			},
			wantErr: true,
		},
		{
			name: "negative overlap rejected",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("CHUNK_OVERLAP", "-1")
			},
			wantErr: true,
		},
		{
			name: "custom values override defaults",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "1024")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "koqa.db"))
				setEnv("MINIO_BUCKET", "uploads")
				setEnv("MINIO_SECURE", "true")
				setEnv("CHUNK_SIZE", "300")
				setEnv("CHUNK_OVERLAP", "30")
				setEnv("RETRIEVAL_K", "10")
				setEnv("WATCH_DOCS", "true")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.QdrantVectorSize == 1024 &&
					cfg.MinioBucket == "uploads" &&
					cfg.MinioSecure &&
					cfg.ChunkSize == 300 &&
					cfg.ChunkOverlap == 30 &&
					cfg.RetrievalK == 10 &&
					cfg.WatchDocs
			},
		},
		{
			name: "invalid boost weight",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("KEYWORD_BOOST_WEIGHT", "abc")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range configEnvVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}
