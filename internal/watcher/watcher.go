// Package watcher turns filesystem events on the drop directory into
// pipeline calls.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler receives drop-directory lifecycle events. Calls are serialized:
// the watcher processes one file at a time, in event order.
type Handler interface {
	OnCreated(ctx context.Context, path string)
	OnDeleted(ctx context.Context, path string)
}

// Watcher monitors a single directory for PDF files.
type Watcher struct {
	dir     string
	handler Handler
	logger  zerolog.Logger
}

func New(dir string, handler Handler, logger zerolog.Logger) *Watcher {
	return &Watcher{dir: dir, handler: handler, logger: logger}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Run watches the drop directory until the context is cancelled. The
// directory is created if missing. Events are handled inline on the watch
// goroutine, so a slow ingestion delays later events instead of racing them.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create drop directory %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info().Str("dir", w.dir).Msg("watching drop directory")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	if !isPDF(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create):
		w.handler.OnCreated(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.handler.OnDeleted(ctx, event.Name)
	}
}
