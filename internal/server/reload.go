package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mindrender/mindrender/internal/moderation"
)

// reloadDebounce coalesces the bursts of write events editors produce when
// saving a file.
const reloadDebounce = 500 * time.Millisecond

// WatchPatterns watches the moderation patterns file and swaps the server's
// gate when it changes. A file that fails to parse keeps the previous gate.
// Blocks until ctx is cancelled.
func (s *Server) WatchPatterns(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors replace files by rename,
	// which drops a watch placed on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	// Single debounce timer, reset on each event. Starts stopped.
	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("pattern watcher error", "err", err)
		case <-timer.C:
			s.reloadPatterns(path)
		}
	}
}

func (s *Server) reloadPatterns(path string) {
	gate, err := moderation.Load(path)
	if err != nil {
		s.log.Error("pattern reload failed, keeping previous gate", "path", path, "err", err)
		return
	}
	s.SwapGate(gate)
	s.log.Info("moderation patterns reloaded", "path", path)
}
