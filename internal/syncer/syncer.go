package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"koqa/internal/contextutil"
	"koqa/internal/objstore"
)

// supportedExtensions lists the document types pulled from the bucket.
var supportedExtensions = map[string]struct{}{
	".md":    {},
	".csv":   {},
	".jsonl": {},
}

// Syncer pulls uploaded documents from the object storage bucket into a local directory.
type Syncer struct {
	store   objstore.Store
	bucket  string
	docsDir string
}

// New creates a new Syncer.
func New(store objstore.Store, bucket, docsDir string) *Syncer {
	return &Syncer{
		store:   store,
		bucket:  bucket,
		docsDir: docsDir,
	}
}

// Sync downloads every supported document from the bucket into the docs directory,
// preserving object key paths. It returns the relative paths of downloaded files.
// Local files are never deleted; a re-uploaded object simply overwrites its local copy.
func (s *Syncer) Sync(ctx context.Context) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := os.MkdirAll(s.docsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}

	objects, err := s.store.List(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}

	var downloaded []string
	for _, obj := range objects {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return downloaded, ctx.Err()
		default:
		}

		if !IsSupported(obj.Key) {
			continue
		}

		localPath := filepath.Join(s.docsDir, filepath.FromSlash(obj.Key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			return downloaded, fmt.Errorf("failed to create directory for %s: %w", obj.Key, err)
		}

		if err := s.store.Download(ctx, s.bucket, obj.Key, localPath); err != nil {
			logger.ErrorContext(ctx, "failed to download object", "key", obj.Key, "error", err)
			return downloaded, err
		}

		downloaded = append(downloaded, filepath.ToSlash(obj.Key))
		logger.DebugContext(ctx, "downloaded object", "key", obj.Key, "size", obj.Size)
	}

	logger.InfoContext(ctx, "bucket sync completed", "bucket", s.bucket, "downloaded", len(downloaded))
	return downloaded, nil
}

// ListRemote returns the keys of all supported documents in the bucket.
func (s *Syncer) ListRemote(ctx context.Context) ([]string, error) {
	objects, err := s.store.List(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}

	var keys []string
	for _, obj := range objects {
		if IsSupported(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// IsSupported reports whether the key refers to a document type the indexer can load.
func IsSupported(key string) bool {
	ext := strings.ToLower(filepath.Ext(key))
	_, ok := supportedExtensions[ext]
	return ok
}
