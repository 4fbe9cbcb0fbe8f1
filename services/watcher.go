package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RawDirWatcher watches the raw document directory and debounces filesystem
// changes into a full reindex. Opt-in via WATCH_RAW_DIR; the admin surface
// does not depend on it.
type RawDirWatcher struct {
	reindexer Reindexer
	rawDir    string
	debounce  time.Duration
	logger    *zap.Logger
}

func NewRawDirWatcher(reindexer Reindexer, rawDir string, logger *zap.Logger) *RawDirWatcher {
	return &RawDirWatcher{
		reindexer: reindexer,
		rawDir:    rawDir,
		debounce:  2 * time.Second,
		logger:    logger,
	}
}

// Watch blocks until ctx is cancelled. Every create, write, remove, or
// rename of a PDF arms the debounce timer; when it fires, one full reindex
// runs. There is no per-file incremental path because the only supported
// store mutation is a full rebuild.
func (w *RawDirWatcher) Watch(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create file watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.rawDir); err != nil {
		w.logger.Error("failed to watch raw directory", zap.String("dir", w.rawDir), zap.Error(err))
		return
	}
	w.logger.Info("watching raw directory", zap.String("dir", w.rawDir))

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".pdf" {
				continue
			}
			// Editors and uploads often produce bursts of events for one
			// logical change; collapse them into a single rebuild.
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Info("raw directory changed", zap.String("event", event.String()))
				pending = time.After(w.debounce)
			}

		case <-pending:
			pending = nil
			if err := w.reindexer.Reindex(ctx); err != nil {
				w.logger.Error("watcher-triggered reindex failed", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-ctx.Done():
			w.logger.Info("context cancelled, shutting down watcher")
			return
		}
	}
}
