package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ScannedFile represents a document file found in the local docs directory.
type ScannedFile struct {
	RelPath string // Relative path from the docs directory (forward slashes)
	Folder  string // Folder path (path components except filename)
	AbsPath string // Absolute file path
}

// Scan walks the docs directory and returns every supported document file.
// A missing docs directory is not an error; it returns an empty list.
func (s *Syncer) Scan(ctx context.Context) ([]ScannedFile, error) {
	if _, err := os.Stat(s.docsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var scanned []ScannedFile
	err := filepath.Walk(s.docsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			return nil
		}
		if !IsSupported(path) {
			return nil
		}

		relPath, err := filepath.Rel(s.docsDir, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.Dir(relPath)
		if folder == "." || folder == "" {
			folder = ""
		} else {
			folder = filepath.ToSlash(folder)
		}

		scanned = append(scanned, ScannedFile{
			RelPath: relPath,
			Folder:  folder,
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return scanned, fmt.Errorf("failed to scan docs directory: %w", err)
	}

	return scanned, nil
}

// AbsPath returns the absolute path of a document given its relative path.
func (s *Syncer) AbsPath(relPath string) string {
	return filepath.Join(s.docsDir, filepath.FromSlash(relPath))
}

// DocsDir returns the local docs directory the syncer writes into.
func (s *Syncer) DocsDir() string {
	return s.docsDir
}
