// Package watcher reindexes the document directory when local files change.
// It is optional (WATCH_DOCS); the usual write path is the bucket sync.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"koqa/internal/contextutil"
	"koqa/internal/syncer"
)

const defaultDebounce = 2 * time.Second

// Reindexer rebuilds the index from the documents on disk.
// *indexer.Pipeline satisfies it.
type Reindexer interface {
	IndexAll(ctx context.Context) error
}

// Watcher triggers a debounced reindex when watched files change.
type Watcher struct {
	docsDir  string
	indexer  Reindexer
	debounce time.Duration
}

// New creates a watcher over docsDir.
func New(docsDir string, indexer Reindexer) *Watcher {
	return &Watcher{
		docsDir:  docsDir,
		indexer:  indexer,
		debounce: defaultDebounce,
	}
}

// Run watches until the context is cancelled. Change bursts (editors write
// temp files, then rename) collapse into a single reindex per debounce
// window.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.docsDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.docsDir, err)
	}

	logger.InfoContext(ctx, "watching documents directory", "dir", w.docsDir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be added to the watch list;
				// fsnotify does not recurse on its own.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, event.Name); err != nil {
						logger.WarnContext(ctx, "failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !syncer.IsSupported(event.Name) {
				continue
			}
			logger.InfoContext(ctx, "document changed", "file", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "file watcher error", "error", err)

		case <-timer.C:
			pending = false
			logger.InfoContext(ctx, "reindexing after document changes")
			if err := w.indexer.IndexAll(ctx); err != nil {
				logger.ErrorContext(ctx, "reindex after change failed", "error", err)
			}
		}
	}
}

// addRecursive watches dir and every subdirectory below it.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
