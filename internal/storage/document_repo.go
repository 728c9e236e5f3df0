package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks koqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetByKey gets a document by its storage key.
	// Returns nil and ErrNotFound if not found.
	GetByKey(ctx context.Context, key string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// ListAll returns all documents ordered by key.
	ListAll(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document by ID. Chunks cascade.
	Delete(ctx context.Context, id string) error
	// Count returns the total number of documents.
	Count(ctx context.Context) (int, error)
	// CountWithoutChunks returns the number of documents that produced no chunks.
	CountWithoutChunks(ctx context.Context) (int, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetByKey gets a document by its storage key.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByKey(ctx context.Context, key string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, key, folder, title, hash, updated_at FROM documents WHERE key = ?",
		key,
	).Scan(&doc.ID, &doc.Key, &doc.Folder, &doc.Title, &doc.Hash, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Upsert inserts a new document or updates an existing one.
// If the document doesn't exist (by key), generates a new UUID.
// If it exists, updates title, hash, and updated_at while preserving the ID.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetByKey(ctx, doc.Key)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing == nil && doc.ID == "" {
		doc.ID = uuid.New().String()
	} else if existing != nil {
		// Preserve existing ID
		doc.ID = existing.ID
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, key, folder, title, hash, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET
		 title = excluded.title, hash = excluded.hash, updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Key, doc.Folder, doc.Title, doc.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// ListAll returns all documents ordered by key.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, key, folder, title, hash, updated_at FROM documents ORDER BY key",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		var updatedAtStr string
		if err := rows.Scan(&doc.ID, &doc.Key, &doc.Folder, &doc.Title, &doc.Hash, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.UpdatedAt, err = parseTimestamp(updatedAtStr)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes a document by ID. Chunks cascade via the foreign key.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Count returns the total number of documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountWithoutChunks returns the number of documents that produced no chunks.
func (r *DocumentRepo) CountWithoutChunks(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents d
		 WHERE NOT EXISTS (SELECT 1 FROM chunks c WHERE c.document_id = d.id)`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents without chunks: %w", err)
	}
	return count, nil
}

// parseTimestamp parses SQLite DATETIME strings in either of the formats
// SQLite emits depending on how the value was written.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
