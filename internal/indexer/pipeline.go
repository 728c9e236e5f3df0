package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"koqa/internal/contextutil"
	"koqa/internal/llm"
	"koqa/internal/storage"
	"koqa/internal/syncer"
	"koqa/internal/vectorstore"
)

// Pipeline orchestrates indexing documents into SQLite and Qdrant.
type Pipeline struct {
	docs        *syncer.Syncer
	docRepo     storage.DocumentStore
	chunkRepo   storage.ChunkStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunker     *MarkdownChunker

	// runMu serializes full-index runs so a forced clear cannot
	// interleave with a reindex already in flight.
	runMu sync.Mutex
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	docs *syncer.Syncer,
	docRepo storage.DocumentStore,
	chunkRepo storage.ChunkStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	chunkSize, chunkOverlap int,
) *Pipeline {
	return &Pipeline{
		docs:        docs,
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunker:     NewMarkdownChunker(chunkSize, chunkOverlap),
	}
}

// IndexFile indexes a single document file. Unchanged files (same SHA256)
// are skipped. On content change the old chunks are removed from both stores
// before the new ones are inserted, so chunk IDs never go stale.
func (p *Pipeline) IndexFile(ctx context.Context, file syncer.ScannedFile) error {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := p.docRepo.GetByKey(ctx, file.RelPath)
	if err != nil && err != storage.ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged file", "key", file.RelPath, "hash", hash)
		return nil
	}

	title, chunks, err := p.loadChunks(ctx, file, content)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "key", file.RelPath)
		return nil
	}

	docID := uuid.New().String()
	if existing != nil {
		docID = existing.ID
	}

	record := &storage.DocumentRecord{
		ID:     docID,
		Key:    file.RelPath,
		Folder: file.Folder,
		Title:  title,
		Hash:   hash,
	}
	if err := p.docRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	if existing != nil {
		if err := p.removeChunks(ctx, docID); err != nil {
			return err
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		chunkID := uuid.New().String()

		chunkRecord := &storage.ChunkRecord{
			ID:         chunkID,
			DocumentID: docID,
			ChunkIndex: chunk.Index,
			Section:    chunk.Section,
			Text:       chunk.Text,
		}
		if err := p.chunkRepo.Insert(ctx, chunkRecord); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}

		meta := map[string]any{
			"document_id": docID,
			"source":      file.RelPath,
			"filename":    filepath.Base(file.RelPath),
			"folder":      file.Folder,
			"title":       title,
			"section":     chunk.Section,
			"chunk_index": chunk.Index,
			"text":        chunk.Text,
		}
		for k, v := range chunk.Meta {
			meta[k] = v
		}

		points[i] = vectorstore.Point{
			ID:   chunkID,
			Vec:  embeddings[i],
			Meta: meta,
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed document", "key", file.RelPath, "chunks", len(chunks), "title", title)
	return nil
}

// loadChunks dispatches to the loader for the file type.
func (p *Pipeline) loadChunks(ctx context.Context, file syncer.ScannedFile, content []byte) (string, []Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)
	filename := filepath.Base(file.RelPath)

	switch strings.ToLower(filepath.Ext(file.RelPath)) {
	case ".md":
		title, chunks, err := p.chunker.ChunkMarkdown(content, filename)
		if err != nil {
			return "", nil, fmt.Errorf("failed to chunk markdown: %w", err)
		}
		return title, chunks, nil

	case ".csv":
		chunks, err := LoadCSV(file.AbsPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load csv: %w", err)
		}
		return titleFromFilename(filename), chunks, nil

	case ".jsonl":
		chunks, err := LoadJSONL(file.AbsPath, logger)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load jsonl: %w", err)
		}
		return titleFromFilename(filename), chunks, nil

	default:
		return "", nil, fmt.Errorf("unsupported file type: %s", file.RelPath)
	}
}

// removeChunks deletes a document's chunks from both stores.
func (p *Pipeline) removeChunks(ctx context.Context, docID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	oldIDs, err := p.chunkRepo.ListIDsByDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(oldIDs) == 0 {
		return nil
	}

	if err := p.vectorStore.Delete(ctx, p.collection, oldIDs); err != nil {
		// New points overwrite by ID, so a failed delete leaves at worst
		// orphaned vectors that the next reindex cleans up.
		logger.WarnContext(ctx, "failed to delete old chunks from vector store", "error", err, "count", len(oldIDs))
	}

	if err := p.chunkRepo.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}

// IndexAll scans the docs directory and indexes every supported file.
// Per-file errors are logged but do not stop the run. Concurrent triggers
// (sync endpoint, watcher, startup) serialize on the run mutex.
func (p *Pipeline) IndexAll(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)

	files, err := p.docs.Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan docs directory: %w", err)
	}

	logger.InfoContext(ctx, "starting indexing", "total_files", len(files))

	var successCount, errorCount int
	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.IndexFile(ctx, file); err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to index file", "key", file.RelPath, "error", err)
			continue
		}
		successCount++
	}

	logger.InfoContext(ctx, "indexing completed", "total_files", len(files), "success", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("indexing completed with %d errors", errorCount)
	}
	return nil
}

// ClearAll removes every indexed document and chunk from both stores.
// Used by forced reindexing.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)

	docs, err := p.docRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		chunkIDs, err := p.chunkRepo.ListIDsByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to list chunk IDs: %w", err)
		}
		if len(chunkIDs) > 0 {
			if err := p.vectorStore.Delete(ctx, p.collection, chunkIDs); err != nil {
				return fmt.Errorf("failed to delete vectors: %w", err)
			}
		}
		// Chunks cascade with the document row.
		if err := p.docRepo.Delete(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}

	logger.InfoContext(ctx, "cleared index", "documents", len(docs))
	return nil
}
