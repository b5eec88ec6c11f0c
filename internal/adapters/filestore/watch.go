package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange whenever the backing file is written, created or
// replaced, until ctx is done. The directory is watched rather than the file
// so rename-over writes (ReplaceAll, most editors) are seen.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Clean(s.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					slog.Debug("route file changed", "path", s.path, "op", ev.Op.String())
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("route file watcher error", "path", s.path, "error", err)
			}
		}
	}()
	return nil
}
