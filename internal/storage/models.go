package storage

import "time"

// DocumentRecord represents a synced document file in the database.
// A document is immutable once synced; re-uploads replace its hash and chunks.
type DocumentRecord struct {
	ID        string // UUID
	Key       string // Storage key, also the path relative to the docs directory
	Folder    string // Folder path (path components except filename)
	Title     string // Extracted title (markdown heading or filename)
	Hash      string // SHA256 hex string of file content
	UpdatedAt time.Time
}

// ChunkRecord represents a chunk of text from a document, indexed for vector search.
type ChunkRecord struct {
	ID         string // UUID (same as Qdrant point ID)
	DocumentID string // UUID (foreign key to documents.id)
	ChunkIndex int    // Index within document (starts at 0)
	Section    string // Heading path for markdown, "row N" for tabular sources
	Text       string // Chunk text content
}
