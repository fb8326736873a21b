package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called for every record document change seen on disk.
// kind is one of "created", "updated", "deleted".
type ChangeCallback func(kind string, key string)

// Watch starts an fsnotify watcher on the FS collection directory and
// reports record changes until ctx is cancelled.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key := keyFromName(filepath.Base(ev.Name))
			if key == "" || strings.HasPrefix(filepath.Base(ev.Name), tmpPrefix) {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&fsnotify.Write != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as its own Create.
				kind = "deleted"
			default:
				continue
			}
			logger.Debug("watcher: record changed", slog.String("key", key), slog.String("op", kind))
			if cb != nil {
				cb(kind, key)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
