package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks koqa/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk into the database.
	// The chunk.ID must be set (UUID) before calling this method.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// DeleteByDocument deletes all chunks for a given document ID.
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListIDsByDocument returns all chunk IDs for a given document, ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID string) ([]string, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// Count returns the total number of chunks.
	Count(ctx context.Context) (int, error)
	// TextLengths returns the character lengths of all chunk texts.
	TextLengths(ctx context.Context) ([]int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, document_id, chunk_index, section, text) VALUES (?, ?, ?, ?, ?)",
		chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Section, chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// DeleteByDocument deletes all chunks for a given document ID.
// Used when re-indexing a document to remove old chunks before inserting new ones.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

// ListIDsByDocument returns all chunk IDs for a given document, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
// Used to get Qdrant point IDs for deletion before re-indexing.
func (r *ChunkRepo) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, document_id, chunk_index, section, text FROM chunks WHERE id = ?",
		id,
	).Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Section, &chunk.Text)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return &chunk, nil
}

// Count returns the total number of chunks.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// TextLengths returns the character length of every chunk text.
// SQLite LENGTH() counts characters on TEXT columns, which matches the
// rune-based sizing the chunker uses. Used for coverage statistics.
func (r *ChunkRepo) TextLengths(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT LENGTH(text) FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk lengths: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var lengths []int
	for rows.Next() {
		var l int
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan chunk length: %w", err)
		}
		lengths = append(lengths, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lengths, nil
}
