package file

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/pkg/ports"
)

// DebounceInterval groups bursts of filesystem events into one notification.
const DebounceInterval = 100 * time.Millisecond

var _ ports.Watchable = (*Resolver)(nil)

// Watch notifies whenever a story file under the root changes. The channel
// is closed when ctx is done or the watcher fails.
func (r *Resolver) Watch(ctx context.Context) (<-chan struct{}, error) {
	return Watch(ctx, logging.NewNop(), r.root)
}

// Watch observes paths (files or directory trees) and sends one
// notification per burst of changes to story files.
func Watch(ctx context.Context, logger *slog.Logger, paths ...string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	files := make(map[string]bool)
	for _, p := range paths {
		if err := add(w, p, files); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(ev, files) {
					continue
				}
				if ev.Has(fsnotify.Create) {
					// New directories are watched too.
					_ = add(w, ev.Name, nil)
				}
				logger.Debug("file change", "path", ev.Name, "op", ev.Op.String())
				if timer == nil {
					timer = time.NewTimer(DebounceInterval)
				} else {
					timer.Reset(DebounceInterval)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "err", err)
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// add watches p. Directories are added recursively; for a single file its
// directory is watched and the file recorded in files.
func add(w *fsnotify.Watcher, p string, files map[string]bool) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == abs && files != nil {
				files[path] = true
				return w.Add(filepath.Dir(path))
			}
			return nil
		}
		if path != abs && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func relevant(ev fsnotify.Event, files map[string]bool) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if len(files) > 0 {
		abs, err := filepath.Abs(ev.Name)
		return err == nil && files[abs]
	}
	return IsStoryFile(ev.Name) || ev.Has(fsnotify.Create)
}
